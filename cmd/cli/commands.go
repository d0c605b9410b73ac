package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"cltlab/adapters/excel"
	"cltlab/adapters/render"
	"cltlab/app"
	"cltlab/domain/population"
	"cltlab/domain/stats"

	"github.com/spf13/cobra"
)

func newFamiliesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List the population families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			type family struct {
				Tag         string  `json:"tag"`
				Name        string  `json:"name"`
				Description string  `json:"description"`
				Mean        float64 `json:"theoretical_mean"`
				StdDev      float64 `json:"theoretical_sd"`
			}
			var list []family
			for _, f := range population.All() {
				list = append(list, family{f.Slug(), f.String(), f.Description(), f.TheoreticalMean(), f.TheoreticalStdDev()})
			}
			if opts.jsonOut {
				return writeJSON(out, list)
			}
			for _, f := range list {
				fmt.Fprintf(out, "%-13s %-13s μ=%6.2f σ=%6.2f  %s\n", f.Tag, f.Name, f.Mean, f.StdDev, f.Description)
			}
			return nil
		},
	}
}

func newPopulationCmd(opts *options) *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:   "population [family]",
		Short: "Describe a generated parent population",
		Long: `Generate (or reuse) the population of a family and print its moments, the modes of its
smoothed density and a text histogram.

Example: cltlab-cli population bimodal --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := familyArg(args)
			if err != nil {
				return err
			}
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			pop, err := c.Lab.Population(contextOf(cmd), family)
			if err != nil {
				return err
			}
			hist, err := render.NewHistogram(pop.Values, bins)
			if err != nil {
				return err
			}
			var peaks []float64
			if curve, err := render.NewDensity(pop.Values, render.DefaultDensityPoints); err == nil {
				peaks = curve.Peaks(0.25)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]interface{}{
					"family":    pop.Family,
					"size":      pop.Size(),
					"mean":      pop.Mean,
					"std_dev":   pop.StdDev,
					"peaks":     peaks,
					"histogram": hist,
				})
			}
			fmt.Fprintf(out, "%s population (%s)\n", pop.Family, pop.Family.Description())
			fmt.Fprintf(out, "size %d  μ = %.3f  σ = %.3f  (theory μ = %.3f, σ = %.3f)\n",
				pop.Size(), pop.Mean, pop.StdDev, pop.Family.TheoreticalMean(), pop.Family.TheoreticalStdDev())
			fmt.Fprintf(out, "density peaks at %s\n\n", formatFloats(peaks))
			printHistogram(out, hist, 50)
			return nil
		},
	}

	cmd.Flags().IntVar(&bins, "bins", 20, "Histogram bins")
	return cmd
}

func newResampleCmd(opts *options) *cobra.Command {
	var n, bins int

	cmd := &cobra.Command{
		Use:   "resample [family]",
		Short: "Draw sample means at one sample size and test them for normality",
		Long: `Draw the configured number of samples of size n from a family's population, summarize the
sample means and run the Shapiro-Wilk test on them.

Example: cltlab-cli resample right-skewed --n 30 --seed 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := familyArg(args)
			if err != nil {
				return err
			}
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			exp, err := c.Lab.Experiment(contextOf(cmd), family, n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, map[string]interface{}{
					"family":      exp.Family,
					"sample_size": exp.SampleSize,
					"summary":     exp.Summary,
					"converging":  exp.Converging(),
				})
			}
			fmt.Fprintf(out, "%s, n = %d, %d sample means\n", exp.Family, exp.SampleSize, len(exp.Means))
			fmt.Fprintln(out, plainStats(exp.Summary))
			if bins > 0 {
				hist, err := render.NewHistogram(exp.Means, bins)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				printHistogram(out, hist, 50)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", stats.DefaultSampleSize, "Sample size (1-100)")
	cmd.Flags().IntVar(&bins, "bins", 0, "Also print a histogram of the means with this many bins")
	return cmd
}

func newRaceCmd(opts *options) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "race",
		Short: "Resample every family at the same sample size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			results, err := c.Lab.Race(contextOf(cmd), n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				rows := make([]map[string]interface{}, 0, len(results))
				for _, exp := range results {
					rows = append(rows, map[string]interface{}{
						"family":  exp.Family,
						"summary": exp.Summary,
					})
				}
				return writeJSON(out, map[string]interface{}{"sample_size": n, "results": rows})
			}
			fmt.Fprint(out, render.RaceTableMarkdown(results))
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", 1, "Sample size (1-100)")
	return cmd
}

func newConvergeCmd(opts *options) *cobra.Command {
	var maxN int

	cmd := &cobra.Command{
		Use:   "converge [family]",
		Short: "Sweep the sample size and report where the means start to look normal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := familyArg(args)
			if err != nil {
				return err
			}
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			conv, err := c.Lab.Converge(contextOf(cmd), family, app.DefaultConvergenceSizes(maxN))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, conv)
			}
			fmt.Fprintf(out, "%s\n%5s %12s %14s %10s  %s\n", conv.Family, "n", "simulated SE", "theoretical SE", "p", "normal")
			for _, pt := range conv.Points {
				mark := "no"
				if pt.Passed {
					mark = "yes"
				}
				fmt.Fprintf(out, "%5d %12.4f %14.4f %10.4f  %s\n", pt.SampleSize, pt.SimulatedSE, pt.TheoreticalSE, pt.PValue, mark)
			}
			if conv.NStar > 0 {
				fmt.Fprintf(out, "normal enough from n = %d\n", conv.NStar)
			} else {
				fmt.Fprintln(out, "not normal at the largest n tested")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxN, "max-n", stats.MaxSampleSize, "Largest sample size in the sweep")
	return cmd
}

func newChartCmd(opts *options) *cobra.Command {
	var n int
	var output string
	var parent bool

	cmd := &cobra.Command{
		Use:   "chart [family]",
		Short: "Write a PNG chart of a population or its sampling distribution",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := familyArg(args)
			if err != nil {
				return err
			}
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			ctx := contextOf(cmd)
			var draw func(io.Writer) error
			if parent {
				pop, err := c.Lab.Population(ctx, family)
				if err != nil {
					return err
				}
				draw = func(w io.Writer) error { return render.WritePopulationChart(w, pop) }
			} else {
				exp, err := c.Lab.Experiment(ctx, family, n)
				if err != nil {
					return err
				}
				draw = func(w io.Writer) error { return render.WriteSamplingChart(w, exp) }
			}

			if output == "" {
				output = fmt.Sprintf("%s-n%d.png", family.Slug(), n)
				if parent {
					output = family.Slug() + "-population.png"
				}
			}
			if err := writeFile(output, draw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", stats.DefaultSampleSize, "Sample size (1-100)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <family>-n<n>.png)")
	cmd.Flags().BoolVar(&parent, "population", false, "Chart the parent population instead of the sample means")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var sizes []int
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export races at one or more sample sizes to an Excel workbook",
		Long: `Run a race at every requested sample size and write one workbook holding a summary row per
experiment and the sample means of each.

Example: cltlab-cli export --n 1 --n 5 --n 30 -o clt.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			var all []*stats.Experiment
			for _, n := range sizes {
				results, err := c.Lab.Race(contextOf(cmd), n)
				if err != nil {
					return err
				}
				all = append(all, results...)
			}
			if err := writeFile(output, func(w io.Writer) error { return excel.WriteWorkbook(w, all) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d experiments to %s\n", len(all), output)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&sizes, "n", []int{1, 5, 30}, "Sample sizes to race")
	cmd.Flags().StringVarP(&output, "output", "o", "clt.xlsx", "Output workbook")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// plainStats is the statistics readout without markdown emphasis
func plainStats(sum stats.Summary) string {
	return strings.NewReplacer("**", "", "*", "").Replace(render.StatsMarkdown(sum))
}

// printHistogram draws one bar per bin, scaled so the fullest bin is width characters wide
func printHistogram(w io.Writer, hist *render.Histogram, width int) {
	peak := 0
	for _, b := range hist.Bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	for _, b := range hist.Bins {
		bar := 0
		if peak > 0 {
			bar = b.Count * width / peak
		}
		fmt.Fprintf(w, "%9.2f | %-*s %d\n", b.Lo, width, strings.Repeat("#", bar), b.Count)
	}
}

func formatFloats(xs []float64) string {
	if len(xs) == 0 {
		return "(none)"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.1f", x)
	}
	return strings.Join(parts, ", ")
}

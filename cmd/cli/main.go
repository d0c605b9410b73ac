package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cltlab/domain/population"
	"cltlab/internal"
	"cltlab/internal/config"
	"cltlab/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand
type options struct {
	seed           uint64
	populationSize int
	count          int
	jsonOut        bool
	verbose        bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "cltlab-cli",
		Short:         "Explore the Central Limit Theorem from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed for reproducible runs (0 seeds from entropy; defaults to CLT_SEED)")
	flags.IntVar(&opts.populationSize, "population-size", 0, "Values per population (defaults to POPULATION_SIZE)")
	flags.IntVar(&opts.count, "count", 0, "Sample means per experiment (defaults to SAMPLE_COUNT)")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	flags.BoolVar(&opts.verbose, "verbose", false, "Log at debug level")

	rootCmd.AddCommand(
		newFamiliesCmd(opts),
		newPopulationCmd(opts),
		newResampleCmd(opts),
		newRaceCmd(opts),
		newConvergeCmd(opts),
		newChartCmd(opts),
		newExportCmd(opts),
		newPlayCmd(opts),
	)
	return rootCmd
}

// build loads the environment configuration, applies the flags that were set and wires
// the application
func build(cmd *cobra.Command, opts *options) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Lab.Seed = opts.seed
	}
	if flags.Changed("population-size") {
		cfg.Lab.PopulationSize = opts.populationSize
	}
	if flags.Changed("count") {
		cfg.Lab.SampleCount = opts.count
	}
	// the CLI plays one local game at a time; a configured database is not needed
	cfg.Game.Store = config.StoreMemory

	level := internal.LogLevelError
	if opts.verbose {
		level = internal.LogLevelDebug
	}
	return container.New(contextOf(cmd), cfg, internal.NewLogger(level))
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// familyArg parses a family tag strictly; the CLI reports typos instead of silently using Normal
func familyArg(args []string) (population.Family, error) {
	if len(args) == 0 {
		return population.Normal, nil
	}
	f, ok := population.Parse(args[0])
	if !ok {
		return 0, fmt.Errorf("unknown family %q (try the families command)", args[0])
	}
	return f, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

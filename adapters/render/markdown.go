package render

import (
	"fmt"
	"html/template"
	"strings"

	"cltlab/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RaceNote is the observation shown under the comparative lab
const RaceNote = `**What to look for**

* At **n=1** you see the raw parent populations.
* At **n=10** Uniform already looks normal while Bimodal and U-Shape still fight it.
* At **n=30** almost every shape has lost its identity.
`

// StatsMarkdown is the one-line statistics readout of an experiment
func StatsMarkdown(sum stats.Summary) string {
	line := fmt.Sprintf("**Stats:** μ = %.2f | σ = %.2f | Simulated SE = %.2f | Theoretical SE = %.2f",
		sum.PopulationMean, sum.PopulationStdDev, sum.SimulatedSE, sum.TheoreticalSE)
	if sum.Normality != nil {
		line += fmt.Sprintf(" | Shapiro-Wilk p = %.4f (*%s*)", sum.Normality.PValue, sum.Normality.Verdict())
	}
	return line
}

// RaceTableMarkdown tabulates a race, one row per family
func RaceTableMarkdown(results []*stats.Experiment) string {
	var b strings.Builder
	b.WriteString("| Family | n | Sampling mean | Simulated SE | Theoretical SE | p | Verdict |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	for _, exp := range results {
		sum := exp.Summary
		p, verdict := 0.0, "untested"
		if sum.Normality != nil {
			p, verdict = sum.Normality.PValue, sum.Normality.Verdict()
		}
		fmt.Fprintf(&b, "| %s | %d | %.2f | %.3f | %.3f | %.4f | %s |\n",
			exp.Family, exp.SampleSize, sum.SamplingMean, sum.SimulatedSE, sum.TheoreticalSE, p, verdict)
	}
	return b.String()
}

// HTML converts markdown to HTML safe to embed in a page; raw HTML in the input is dropped
func HTML(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}

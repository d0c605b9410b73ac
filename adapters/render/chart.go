package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"io"

	"cltlab/domain/population"
	"cltlab/domain/stats"
	apperrors "cltlab/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart colours, also used by the HTML pages
const (
	PopulationHex = "#3366CC"
	ConvergedHex  = "#109618"
	ConvergingHex = "#FF9900"
)

var (
	populationColor = color.RGBA{R: 0x33, G: 0x66, B: 0xCC, A: 0xFF}
	convergedColor  = color.RGBA{R: 0x10, G: 0x96, B: 0x18, A: 0xFF}
	convergingColor = color.RGBA{R: 0xFF, G: 0x99, B: 0x00, A: 0xFF}
	curveColor      = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// Size is a chart's dimensions
type Size struct {
	Width, Height vg.Length
}

// Standard chart sizes
var (
	PopulationSize = Size{Width: 7 * vg.Inch, Height: 2.6 * vg.Inch}
	SamplingSize   = Size{Width: 7 * vg.Inch, Height: 3.6 * vg.Inch}
	TileSize       = Size{Width: 3.6 * vg.Inch, Height: 3 * vg.Inch}
)

// SamplingHex is the colour of a sampling distribution drawn at sample size n
func SamplingHex(n int) string {
	if n >= stats.ConvergenceSampleSize {
		return ConvergedHex
	}
	return ConvergingHex
}

func samplingColor(n int) color.Color {
	if n >= stats.ConvergenceSampleSize {
		return convergedColor
	}
	return convergingColor
}

// chartSpec describes one histogram-with-curve chart
type chartSpec struct {
	title   string
	xLabel  string
	values  []float64
	fill    color.Color
	bins    int
	size    Size
	compact bool
}

// WritePopulationChart draws the parent population histogram as PNG
func WritePopulationChart(w io.Writer, pop *population.Population) error {
	return writeChart(w, chartSpec{
		title:  "Parent Population: " + pop.Family.String(),
		xLabel: "value",
		values: pop.Values,
		fill:   populationColor,
		bins:   60,
		size:   PopulationSize,
	})
}

// WriteSamplingChart draws the sampling distribution of the mean as PNG
func WriteSamplingChart(w io.Writer, exp *stats.Experiment) error {
	return writeChart(w, chartSpec{
		title:  fmt.Sprintf("Sampling Distribution of the Mean (n=%d)", exp.SampleSize),
		xLabel: "sample mean",
		values: exp.Means,
		fill:   samplingColor(exp.SampleSize),
		bins:   DefaultBins,
		size:   SamplingSize,
	})
}

// WriteTileChart draws the small unlabelled chart used for each family in the race view
func WriteTileChart(w io.Writer, exp *stats.Experiment) error {
	return writeChart(w, chartSpec{
		title:   fmt.Sprintf("%s (n=%d)", exp.Family, exp.SampleSize),
		values:  exp.Means,
		fill:    samplingColor(exp.SampleSize),
		bins:    30,
		size:    TileSize,
		compact: true,
	})
}

// DataURI renders a chart into an inline PNG data URI
func DataURI(draw func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeChart(w io.Writer, spec chartSpec) error {
	if len(spec.values) == 0 {
		return apperrors.RenderError("nothing to plot", nil)
	}

	p := plot.New()
	p.Title.Text = spec.title
	p.X.Label.Text = spec.xLabel
	if spec.compact {
		p.HideY()
	} else {
		p.Y.Label.Text = "density"
	}

	hist, err := plotter.NewHist(plotter.Values(spec.values), spec.bins)
	if err != nil {
		return apperrors.RenderError("failed to bin values", err)
	}
	hist.Normalize(1)
	hist.FillColor = spec.fill
	hist.LineStyle.Color = color.White
	hist.LineStyle.Width = vg.Points(0.5)
	p.Add(hist)

	// a constant sample has no density curve; the histogram alone still renders
	if curve, err := NewDensity(spec.values, DefaultDensityPoints); err == nil {
		xys := make(plotter.XYs, len(curve.Points))
		for i, pt := range curve.Points {
			xys[i].X, xys[i].Y = pt.X, pt.Y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return apperrors.RenderError("failed to build density curve", err)
		}
		line.LineStyle.Color = curveColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
	}

	wt, err := p.WriterTo(spec.size.Width, spec.size.Height, "png")
	if err != nil {
		return apperrors.RenderError("failed to create PNG canvas", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return apperrors.RenderError("failed to write PNG", err)
	}
	return nil
}

package render

import (
	"math"

	"cltlab/domain/core"

	mstats "github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultDensityPoints = 200
	// populations are thinned to at most this many values before smoothing
	maxKDESample = 4000
)

// Point is one (x, density) pair of a curve
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve is a Gaussian kernel density estimate evaluated on an even grid
type Curve struct {
	Points    []Point `json:"points"`
	Bandwidth float64 `json:"bandwidth"`
}

// NewDensity smooths xs with a Gaussian kernel (Scott's bandwidth) and evaluates the estimate
// at the given number of grid points spanning the data plus one bandwidth on either side.
func NewDensity(xs []float64, points int) (*Curve, error) {
	if len(xs) < 2 {
		return nil, core.ErrInsufficientData
	}
	if points < 2 {
		points = DefaultDensityPoints
	}

	sample := mstats.Sample{Xs: thin(xs, maxKDESample)}
	bw := mstats.BandwidthScott(sample)
	if !(bw > 0) {
		// a zero interquartile range zeroes Scott's rule
		bw = mstats.BandwidthSilverman(sample)
	}
	if !(bw > 0) || math.IsInf(bw, 0) {
		return nil, core.ErrDegenerateSample
	}

	kde := &mstats.KDE{
		Sample:    sample,
		Kernel:    mstats.GaussianKernel,
		Bandwidth: bw,
	}

	lo, hi := sample.Bounds()
	grid := floats.Span(make([]float64, points), lo-bw, hi+bw)

	curve := &Curve{Points: make([]Point, points), Bandwidth: bw}
	for i, x := range grid {
		curve.Points[i] = Point{X: x, Y: kde.PDF(x)}
	}
	return curve, nil
}

// Peaks returns the x positions of local maxima at least minFrac of the highest point
func (c *Curve) Peaks(minFrac float64) []float64 {
	var top float64
	for _, p := range c.Points {
		top = math.Max(top, p.Y)
	}

	var peaks []float64
	for i := 1; i < len(c.Points)-1; i++ {
		y := c.Points[i].Y
		if y >= minFrac*top && y > c.Points[i-1].Y && y >= c.Points[i+1].Y {
			peaks = append(peaks, c.Points[i].X)
		}
	}
	return peaks
}

// thin keeps every k-th value so at most limit remain; striding preserves the share of each
// region of an ordered slice such as the bimodal population
func thin(xs []float64, limit int) []float64 {
	if len(xs) <= limit {
		return xs
	}
	stride := (len(xs) + limit - 1) / limit
	out := make([]float64, 0, limit)
	for i := 0; i < len(xs); i += stride {
		out = append(out, xs[i])
	}
	return out
}

// Package render turns populations and sample-mean sets into things people look at:
// histogram bins, smoothed density curves, PNG charts and the statistics readout.
package render

import (
	"fmt"
	"math"
	"sort"

	"cltlab/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin counts
const (
	DefaultBins = 40
	MaxBins     = 200
)

// Bin is one half-open interval [Lo, Hi) of a histogram. Density is Count scaled so the
// histogram encloses unit area.
type Bin struct {
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
	Count   int     `json:"count"`
	Density float64 `json:"density"`
}

// Histogram is an equal-width binning of a sample
type Histogram struct {
	Bins  []Bin `json:"bins"`
	Total int   `json:"total"`
}

// NewHistogram bins xs into the given number of equal-width bins spanning its range.
// A non-positive bins selects DefaultBins.
func NewHistogram(xs []float64, bins int) (*Histogram, error) {
	if len(xs) == 0 {
		return nil, core.ErrInsufficientData
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	if bins > MaxBins {
		return nil, fmt.Errorf("%w: %d bins, at most %d", core.ErrInsufficientData, bins, MaxBins)
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: non-finite value", core.ErrInsufficientData)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	// the top divider must lie strictly above the maximum
	hi = math.Nextafter(hi, math.Inf(1))

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	total := float64(len(sorted))
	h := &Histogram{Bins: make([]Bin, bins), Total: len(sorted)}
	for i, c := range counts {
		width := dividers[i+1] - dividers[i]
		h.Bins[i] = Bin{
			Lo:      dividers[i],
			Hi:      dividers[i+1],
			Count:   int(c),
			Density: c / (total * width),
		}
	}
	return h, nil
}

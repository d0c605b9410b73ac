package generator

import (
	"math"
	"math/rand/v2"

	"cltlab/domain/population"

	"gonum.org/v1/gonum/stat/distuv"
)

// sampler fills dst with independent draws for one family
type sampler func(dst []float64, r *rand.Rand)

// samplers holds one generator per family. Its length is tied to the enumeration, so adding
// a family without a generator fails TestEveryFamilyHasSampler.
var samplers = [...]sampler{
	population.Normal:      normalSampler,
	population.Uniform:     uniformSampler,
	population.RightSkewed: rightSkewedSampler,
	population.LeftSkewed:  leftSkewedSampler,
	population.Bimodal:     bimodalSampler,
	population.UShape:      uShapeSampler,
}

const (
	skewMean   = 20.0
	modeSpread = 5.0
	uShapeAB   = 0.2
)

func normalSampler(dst []float64, r *rand.Rand) {
	fill(dst, distuv.Normal{Mu: 50, Sigma: 15, Src: r})
}

func uniformSampler(dst []float64, r *rand.Rand) {
	fill(dst, distuv.Uniform{Min: 0, Max: 100, Src: r})
}

func rightSkewedSampler(dst []float64, r *rand.Rand) {
	fill(dst, distuv.Exponential{Rate: 1 / skewMean, Src: r})
}

func leftSkewedSampler(dst []float64, r *rand.Rand) {
	fill(dst, distuv.Exponential{Rate: 1 / skewMean, Src: r})
	for i, v := range dst {
		dst[i] = 100 - v
	}
}

// bimodalSampler concatenates two equal halves; for odd sizes the upper mode gets the extra value
func bimodalSampler(dst []float64, r *rand.Rand) {
	half := len(dst) / 2
	fill(dst[:half], distuv.Normal{Mu: 25, Sigma: modeSpread, Src: r})
	fill(dst[half:], distuv.Normal{Mu: 75, Sigma: modeSpread, Src: r})
}

func uShapeSampler(dst []float64, r *rand.Rand) {
	fill(dst, distuv.Beta{Alpha: uShapeAB, Beta: uShapeAB, Src: r})
	for i, v := range dst {
		dst[i] = v * 100
	}
}

// fill draws len(dst) finite values, redrawing the rare non-finite result
func fill(dst []float64, d distuv.Rander) {
	for i := range dst {
		v := d.Rand()
		for math.IsNaN(v) || math.IsInf(v, 0) {
			v = d.Rand()
		}
		dst[i] = v
	}
}

// Generate draws size values of family f from r. Families outside the enumeration are
// generated as Normal.
func Generate(f population.Family, size int, r *rand.Rand) []float64 {
	values := make([]float64, size)
	samplers[f.OrDefault()](values, r)
	return values
}

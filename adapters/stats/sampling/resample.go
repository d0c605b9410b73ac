// Package sampling holds the resampling kernels: means of repeated with-replacement samples
// and the summary statistics derived from them. Callers validate n and k.
package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"

	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	"cltlab/ports"

	mfstats "github.com/montanaflynn/stats"
)

// ResampleMeans draws k samples of n values from values with replacement and returns the mean
// of each sample. For n == 1 every mean is a single direct draw.
func ResampleMeans(r *rand.Rand, values []float64, n, k int) []float64 {
	means := make([]float64, k)
	if len(values) == 0 || n < 1 {
		return means
	}

	size := len(values)
	fn := float64(n)
	for i := range means {
		var sum float64
		for j := 0; j < n; j++ {
			sum += values[r.IntN(size)]
		}
		means[i] = sum / fn
	}
	return means
}

// Summarize derives the population moments, the sampling-distribution mean and the simulated
// and theoretical standard errors. Normality is left unset.
func Summarize(pop *population.Population, means []float64, n int) (stats.Summary, error) {
	if pop == nil || pop.Size() == 0 {
		return stats.Summary{}, core.ErrEmptyPopulation
	}
	if n < 1 {
		return stats.Summary{}, core.NewSampleSizeError(n, stats.MinSampleSize, stats.MaxSampleSize)
	}

	samplingMean, err := mfstats.Mean(means)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("%w: sampling mean: %v", core.ErrInsufficientData, err)
	}
	simulatedSE, err := mfstats.StandardDeviationPopulation(means)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("%w: simulated standard error: %v", core.ErrInsufficientData, err)
	}

	return stats.Summary{
		PopulationMean:   pop.Mean,
		PopulationStdDev: pop.StdDev,
		SamplingMean:     samplingMean,
		SimulatedSE:      simulatedSE,
		TheoreticalSE:    TheoreticalSE(pop.StdDev, n),
		SampleSize:       n,
		SampleCount:      len(means),
	}, nil
}

// TheoreticalSE is the standard error the CLT predicts for means of n draws
func TheoreticalSE(sigma float64, n int) float64 {
	if n < 1 {
		return 0
	}
	return sigma / math.Sqrt(float64(n))
}

// CheckNormality runs the Shapiro-Wilk test on the first stats.NormalityCap means.
// A test that cannot be computed yields p = 0 and a failed verdict, never an error.
func CheckNormality(tester ports.NormalityTester, means []float64) *stats.Normality {
	prefix := means
	if len(prefix) > stats.NormalityCap {
		prefix = prefix[:stats.NormalityCap]
	}

	result := &stats.Normality{Tested: len(prefix)}
	w, p, err := tester.ShapiroWilk(prefix)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	result.W = w
	result.PValue = p
	result.Passed = p > stats.NormalityAlpha
	return result
}

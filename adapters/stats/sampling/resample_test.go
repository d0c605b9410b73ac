package sampling

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"cltlab/adapters/generator"
	"cltlab/adapters/stats/normality"
	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gstat "gonum.org/v1/gonum/stat"
	"pgregory.net/rapid"
)

func newPopulation(t *testing.T, f population.Family, seed uint64) *population.Population {
	t.Helper()
	values := generator.Generate(f, population.DefaultSize, rand.New(rand.NewPCG(seed, seed+1)))
	mean, sd := gstat.PopMeanStdDev(values, nil)
	return &population.Population{Family: f, Values: values, Mean: mean, StdDev: sd}
}

func fraction(xs []float64, keep func(float64) bool) float64 {
	var c int
	for _, x := range xs {
		if keep(x) {
			c++
		}
	}
	return float64(c) / float64(len(xs))
}

func TestResampleMeansLength(t *testing.T) {
	pop := newPopulation(t, population.Normal, 1)
	r := rand.New(rand.NewPCG(7, 7))

	for _, n := range []int{1, 2, 30, 100} {
		means := ResampleMeans(r, pop.Values, n, stats.DefaultSampleCount)
		assert.Len(t, means, stats.DefaultSampleCount, "n=%d", n)
	}
	assert.Empty(t, ResampleMeans(r, pop.Values, 5, 0))
}

func TestResampleMeansDeterministicForSeed(t *testing.T) {
	pop := newPopulation(t, population.RightSkewed, 2)
	a := ResampleMeans(rand.New(rand.NewPCG(3, 4)), pop.Values, 10, 50)
	b := ResampleMeans(rand.New(rand.NewPCG(3, 4)), pop.Values, 10, 50)
	assert.Equal(t, a, b)
}

// TestSingleDrawMeansMatchPopulation checks that with n=1 the means are indistinguishable
// from the population under a two-sample Kolmogorov-Smirnov test.
func TestSingleDrawMeansMatchPopulation(t *testing.T) {
	for _, f := range population.All() {
		t.Run(f.Slug(), func(t *testing.T) {
			pop := newPopulation(t, f, 10+uint64(f))
			means := ResampleMeans(rand.New(rand.NewPCG(20, uint64(f))), pop.Values, 1, stats.DefaultSampleCount)

			x := append([]float64(nil), means...)
			y := append([]float64(nil), pop.Values...)
			sort.Float64s(x)
			sort.Float64s(y)

			d := gstat.KolmogorovSmirnov(x, nil, y, nil)
			m, n := float64(len(x)), float64(len(y))
			critical := 1.95 * math.Sqrt((m+n)/(m*n))
			assert.Less(t, d, critical, "KS distance %.4f", d)
		})
	}
}

func TestSimulatedSETracksTheory(t *testing.T) {
	for _, f := range []population.Family{population.Normal, population.RightSkewed, population.UShape} {
		pop := newPopulation(t, f, 30+uint64(f))
		r := rand.New(rand.NewPCG(31, uint64(f)))

		for _, n := range []int{1, 4, 16, 64} {
			means := ResampleMeans(r, pop.Values, n, stats.DefaultSampleCount)
			summary, err := Summarize(pop, means, n)
			require.NoError(t, err)

			assert.InDelta(t, pop.StdDev/math.Sqrt(float64(n)), summary.TheoreticalSE, 1e-12)
			assert.InEpsilon(t, summary.TheoreticalSE, summary.SimulatedSE, 0.1, "%s n=%d", f, n)
			assert.InDelta(t, 1, summary.SERatio(), 0.1)
		}
	}
}

func TestUniformThirtyScenario(t *testing.T) {
	pop := newPopulation(t, population.Uniform, 42)
	means := ResampleMeans(rand.New(rand.NewPCG(42, 43)), pop.Values, 30, stats.DefaultSampleCount)

	summary, err := Summarize(pop, means, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, summary.SampleSize)
	assert.Equal(t, stats.DefaultSampleCount, summary.SampleCount)
	assert.InDelta(t, 50, summary.SamplingMean, 0.6)
	assert.InDelta(t, 28.87/math.Sqrt(30), summary.TheoreticalSE, 0.05)
	assert.InEpsilon(t, summary.TheoreticalSE, summary.SimulatedSE, 0.15)
}

func TestBimodalMeansCollapseToOneMode(t *testing.T) {
	pop := newPopulation(t, population.Bimodal, 5)
	r := rand.New(rand.NewPCG(50, 51))

	single := ResampleMeans(r, pop.Values, 1, stats.DefaultSampleCount)
	below := fraction(single, func(x float64) bool { return x < 50 })
	assert.InDelta(t, 0.5, below, 0.05)
	middle := fraction(single, func(x float64) bool { return x > 40 && x < 60 })
	assert.Less(t, middle, 0.02, "n=1 means should avoid the gap between the modes")

	fifty := ResampleMeans(r, pop.Values, 50, stats.DefaultSampleCount)
	summary, err := Summarize(pop, fifty, 50)
	require.NoError(t, err)
	assert.InDelta(t, 50, summary.SamplingMean, 1)
	assert.Greater(t, fraction(fifty, func(x float64) bool { return x >= 45 && x <= 55 }), 0.7)
}

func TestNormalityImprovesWithSampleSize(t *testing.T) {
	tester := normality.NewTester()

	t.Run("symmetric families pass at n=100", func(t *testing.T) {
		for _, f := range []population.Family{population.Normal, population.Uniform, population.Bimodal, population.UShape} {
			pop := newPopulation(t, f, 60+uint64(f))
			r := rand.New(rand.NewPCG(61, uint64(f)))

			passed := 0
			for rep := 0; rep < 5; rep++ {
				means := ResampleMeans(r, pop.Values, 100, stats.DefaultSampleCount)
				if CheckNormality(tester, means).Passed {
					passed++
				}
			}
			assert.GreaterOrEqual(t, passed, 3, "%s passed %d of 5", f, passed)
		}
	})

	t.Run("skewed families move towards normal", func(t *testing.T) {
		for _, f := range []population.Family{population.RightSkewed, population.LeftSkewed} {
			pop := newPopulation(t, f, 70+uint64(f))
			r := rand.New(rand.NewPCG(71, uint64(f)))

			medianP := func(n int) float64 {
				ps := make([]float64, 5)
				for i := range ps {
					ps[i] = CheckNormality(tester, ResampleMeans(r, pop.Values, n, stats.DefaultSampleCount)).PValue
				}
				sort.Float64s(ps)
				return ps[2]
			}
			small, large := medianP(2), medianP(100)
			assert.Greater(t, large, small, "%s", f)
			assert.False(t, CheckNormality(tester, ResampleMeans(r, pop.Values, 2, stats.DefaultSampleCount)).Passed)
		}
	})
}

type mockTester struct {
	mock.Mock
}

func (m *mockTester) ShapiroWilk(xs []float64) (float64, float64, error) {
	args := m.Called(xs)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func TestCheckNormalityTestsOnlyThePrefix(t *testing.T) {
	tester := new(mockTester)
	tester.On("ShapiroWilk", mock.MatchedBy(func(xs []float64) bool {
		return len(xs) == stats.NormalityCap
	})).Return(0.99, 0.42, nil).Once()

	result := CheckNormality(tester, make([]float64, stats.DefaultSampleCount))

	tester.AssertExpectations(t)
	assert.Equal(t, stats.NormalityCap, result.Tested)
	assert.Equal(t, 0.42, result.PValue)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Err)
}

func TestCheckNormalityFailureMeansZeroP(t *testing.T) {
	tester := new(mockTester)
	tester.On("ShapiroWilk", mock.Anything).Return(0.0, 0.7, errors.New("numerical trouble"))

	result := CheckNormality(tester, []float64{1, 2, 3, 4})
	assert.Equal(t, 0.0, result.PValue)
	assert.False(t, result.Passed)
	assert.Equal(t, "numerical trouble", result.Err)
	assert.Equal(t, "not yet normal", result.Verdict())
}

func TestCheckNormalityDegenerateMeans(t *testing.T) {
	result := CheckNormality(normality.NewTester(), []float64{3, 3, 3, 3, 3, 3})
	assert.Zero(t, result.PValue)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Err)

	result = CheckNormality(normality.NewTester(), []float64{1, 2})
	assert.Zero(t, result.PValue)
	assert.False(t, result.Passed)
}

func TestSummarizeErrors(t *testing.T) {
	pop := newPopulation(t, population.Normal, 90)

	_, err := Summarize(pop, nil, 5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = Summarize(&population.Population{}, []float64{1}, 5)
	assert.ErrorIs(t, err, core.ErrEmptyPopulation)

	_, err = Summarize(pop, []float64{1}, 0)
	assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)
}

// TestMeansStayWithinPopulationRange checks every mean lies between the population extremes
func TestMeansStayWithinPopulationRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 200).Draw(rt, "size")
		values := rapid.SliceOfN(rapid.Float64Range(-1e6, 1e6), size, size).Draw(rt, "values")
		n := rapid.IntRange(stats.MinSampleSize, stats.MaxSampleSize).Draw(rt, "n")
		k := rapid.IntRange(0, 50).Draw(rt, "k")
		seed := rapid.Uint64().Draw(rt, "seed")

		lo, hi := values[0], values[0]
		for _, v := range values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}

		means := ResampleMeans(rand.New(rand.NewPCG(seed, 0)), values, n, k)
		if len(means) != k {
			rt.Fatalf("got %d means, want %d", len(means), k)
		}
		slack := 1e-9 * math.Max(1, math.Max(math.Abs(lo), math.Abs(hi)))
		for _, m := range means {
			if m < lo-slack || m > hi+slack {
				rt.Fatalf("mean %v outside [%v, %v]", m, lo, hi)
			}
		}
	})
}

package app

import (
	"context"
	"testing"

	"cltlab/adapters/generator"
	"cltlab/adapters/memory"
	"cltlab/adapters/rng"
	"cltlab/adapters/stats/normality"
	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	apperrors "cltlab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rng   *rng.StreamProvider
	cache *generator.Cache
	lab   *LabService
	game  *GameService
	store *memory.SessionRepository
}

func newFixture(t *testing.T, seed uint64) *fixture {
	t.Helper()
	streams := rng.NewStreamProvider(seed)
	cache, err := generator.NewCache(20_000, streams, nil)
	require.NoError(t, err)

	lab := NewLabService(cache, streams, normality.NewTester(), 0, nil)
	store := memory.NewSessionRepository()
	return &fixture{
		rng:   streams,
		cache: cache,
		lab:   lab,
		game:  NewGameService(store, lab, streams, "", nil),
		store: store,
	}
}

func TestValidateSampleSize(t *testing.T) {
	for _, n := range []int{1, 2, 30, 100} {
		assert.NoError(t, ValidateSampleSize(n))
	}
	for _, n := range []int{-1, 0, 101, 1000} {
		err := ValidateSampleSize(n)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	}
}

func TestExplore(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	res, err := f.lab.Explore(ctx, population.Uniform, 30)
	require.NoError(t, err)

	assert.Equal(t, population.Uniform, res.Population.Family)
	assert.Len(t, res.Population.Values, 20_000)

	exp := res.Experiment
	assert.Equal(t, population.Uniform, exp.Family)
	assert.Equal(t, 30, exp.SampleSize)
	assert.Equal(t, stats.DefaultSampleCount, exp.SampleCount)
	assert.Len(t, exp.Means, stats.DefaultSampleCount)
	assert.True(t, exp.Converging())

	require.NotNil(t, exp.Summary.Normality)
	assert.Equal(t, stats.NormalityCap, exp.Summary.Normality.Tested)
	assert.InDelta(t, res.Population.Mean, exp.Summary.SamplingMean, 0.6)
	assert.InEpsilon(t, exp.Summary.TheoreticalSE, exp.Summary.SimulatedSE, 0.15)

	// the population is memoized across calls, the means are not
	again, err := f.lab.Explore(ctx, population.Uniform, 30)
	require.NoError(t, err)
	assert.Same(t, res.Population, again.Population)
	assert.NotEqual(t, exp.Means, again.Experiment.Means)
}

func TestExploreRejectsOutOfRange(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.lab.Explore(context.Background(), population.Normal, 0)
	assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)

	_, err = f.lab.Experiment(context.Background(), population.Normal, 101)
	assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)
	assert.False(t, f.cache.Cached(population.Normal), "validation happens before generation")
}

func TestRaceCoversEveryFamilyInOrder(t *testing.T) {
	f := newFixture(t, 3)

	results, err := f.lab.Race(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, results, population.Count())

	for i, fam := range population.All() {
		assert.Equal(t, fam, results[i].Family)
		assert.Equal(t, 5, results[i].SampleSize)
		assert.False(t, results[i].Converging())
		assert.NotNil(t, results[i].Summary.Normality)
		assert.True(t, f.cache.Cached(fam))
	}
}

func TestRaceIsReproducibleWithSeed(t *testing.T) {
	a, err := newFixture(t, 77).lab.Race(context.Background(), 8)
	require.NoError(t, err)
	b, err := newFixture(t, 77).lab.Race(context.Background(), 8)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Means, b[i].Means, "family %s", a[i].Family)
	}
}

func TestRaceCancelled(t *testing.T) {
	f := newFixture(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.lab.Race(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultConvergenceSizes(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5, 7, 10, 12}, DefaultConvergenceSizes(12))
	sizes := DefaultConvergenceSizes(0)
	assert.Equal(t, 1, sizes[0])
	assert.Equal(t, stats.MaxSampleSize, sizes[len(sizes)-1])
}

func TestConverge(t *testing.T) {
	f := newFixture(t, 5)

	conv, err := f.lab.Converge(context.Background(), population.RightSkewed, []int{50, 2, 10, 2, 100})
	require.NoError(t, err)

	assert.Equal(t, population.RightSkewed, conv.Family)
	require.Len(t, conv.Points, 4)
	for i, n := range []int{2, 10, 50, 100} {
		p := conv.Points[i]
		assert.Equal(t, n, p.SampleSize)
		assert.InEpsilon(t, p.TheoreticalSE, p.SimulatedSE, 0.15)
	}
	assert.False(t, conv.Points[0].Passed, "exponential means at n=2 are visibly skewed")

	if conv.NStar != 0 {
		assert.Greater(t, conv.NStar, 2)
	}

	_, err = f.lab.Converge(context.Background(), population.Normal, []int{5, 500})
	assert.ErrorIs(t, err, core.ErrSampleSizeOutOfRange)
}

func TestNStar(t *testing.T) {
	pts := func(passed ...bool) []stats.ConvergencePoint {
		out := make([]stats.ConvergencePoint, len(passed))
		for i, p := range passed {
			out[i] = stats.ConvergencePoint{SampleSize: (i + 1) * 10, Passed: p}
		}
		return out
	}

	assert.Equal(t, 0, nStar(nil))
	assert.Equal(t, 10, nStar(pts(true, true, true)))
	assert.Equal(t, 0, nStar(pts(false, true, false)))
	assert.Equal(t, 40, nStar(pts(false, true, false, true, true)))
	assert.Equal(t, 0, nStar(pts(true, true, false)))
}

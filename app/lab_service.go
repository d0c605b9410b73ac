package app

import (
	"context"
	"sort"
	"time"

	"cltlab/adapters/stats/sampling"
	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/domain/stats"
	"cltlab/internal"
	apperrors "cltlab/internal/errors"
	"cltlab/ports"

	"golang.org/x/sync/errgroup"
)

// LabService runs resampling experiments against the memoized populations
type LabService struct {
	populations ports.PopulationSource
	rng         ports.RNGPort
	normality   ports.NormalityTester
	sampleCount int
	logger      *internal.Logger
}

// Exploration is a single-population lab result: the population and one experiment on it
type Exploration struct {
	Population *population.Population
	Experiment *stats.Experiment
}

// NewLabService creates a lab service. A non-positive sampleCount selects stats.DefaultSampleCount.
func NewLabService(populations ports.PopulationSource, rng ports.RNGPort, normality ports.NormalityTester, sampleCount int, logger *internal.Logger) *LabService {
	if sampleCount <= 0 {
		sampleCount = stats.DefaultSampleCount
	}
	return &LabService{
		populations: populations,
		rng:         rng,
		normality:   normality,
		sampleCount: sampleCount,
		logger:      logger.With("lab"),
	}
}

// SampleCount is the number of sample means drawn per experiment
func (s *LabService) SampleCount() int {
	return s.sampleCount
}

// ValidateSampleSize rejects n outside [stats.MinSampleSize, stats.MaxSampleSize]
func ValidateSampleSize(n int) error {
	if n < stats.MinSampleSize || n > stats.MaxSampleSize {
		return apperrors.Wrapf(core.NewSampleSizeError(n, stats.MinSampleSize, stats.MaxSampleSize),
			"sample size must be between %d and %d", stats.MinSampleSize, stats.MaxSampleSize)
	}
	return nil
}

// Population returns the memoized population of family
func (s *LabService) Population(ctx context.Context, family population.Family) (*population.Population, error) {
	pop, err := s.populations.Population(ctx, family)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to generate %s population", family)
	}
	return pop, nil
}

// Experiment draws a fresh sample-mean set of size n for family and summarizes it
func (s *LabService) Experiment(ctx context.Context, family population.Family, n int) (*stats.Experiment, error) {
	if err := ValidateSampleSize(n); err != nil {
		return nil, err
	}
	pop, err := s.Population(ctx, family)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, pop, n)
}

// Explore is the single-population lab: the population of family plus one experiment at n
func (s *LabService) Explore(ctx context.Context, family population.Family, n int) (*Exploration, error) {
	if err := ValidateSampleSize(n); err != nil {
		return nil, err
	}
	pop, err := s.Population(ctx, family)
	if err != nil {
		return nil, err
	}
	exp, err := s.run(ctx, pop, n)
	if err != nil {
		return nil, err
	}
	return &Exploration{Population: pop, Experiment: exp}, nil
}

// Race runs one experiment at n for every family concurrently. Results follow the family
// enumeration order.
func (s *LabService) Race(ctx context.Context, n int) ([]*stats.Experiment, error) {
	if err := ValidateSampleSize(n); err != nil {
		return nil, err
	}

	start := time.Now()
	families := population.All()
	results := make([]*stats.Experiment, len(families))

	g, gctx := errgroup.WithContext(ctx)
	for i, family := range families {
		i, family := i, family
		g.Go(func() error {
			pop, err := s.Population(gctx, family)
			if err != nil {
				return err
			}
			exp, err := s.run(gctx, pop, n)
			if err != nil {
				return err
			}
			results[i] = exp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("race at n=%d finished in %s", n, time.Since(start))
	return results, nil
}

// DefaultConvergenceSizes is the sweep used when the caller gives no sizes, capped at maxN
func DefaultConvergenceSizes(maxN int) []int {
	if maxN < stats.MinSampleSize || maxN > stats.MaxSampleSize {
		maxN = stats.MaxSampleSize
	}
	grid := []int{1, 2, 3, 4, 5, 7, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100}

	sizes := make([]int, 0, len(grid)+1)
	for _, n := range grid {
		if n <= maxN {
			sizes = append(sizes, n)
		}
	}
	if sizes[len(sizes)-1] != maxN {
		sizes = append(sizes, maxN)
	}
	return sizes
}

// Converge sweeps the sample size for family, comparing simulated and theoretical standard
// errors and recording the normality verdict at each size. Sizes are sorted and deduplicated.
func (s *LabService) Converge(ctx context.Context, family population.Family, sizes []int) (*stats.Convergence, error) {
	if len(sizes) == 0 {
		sizes = DefaultConvergenceSizes(stats.MaxSampleSize)
	}
	sorted := append([]int(nil), sizes...)
	sort.Ints(sorted)
	for _, n := range sorted {
		if err := ValidateSampleSize(n); err != nil {
			return nil, err
		}
	}

	pop, err := s.Population(ctx, family)
	if err != nil {
		return nil, err
	}

	conv := &stats.Convergence{Family: pop.Family}
	for i, n := range sorted {
		if i > 0 && n == sorted[i-1] {
			continue
		}
		exp, err := s.run(ctx, pop, n)
		if err != nil {
			return nil, err
		}
		conv.Points = append(conv.Points, stats.ConvergencePoint{
			SampleSize:    n,
			SimulatedSE:   exp.Summary.SimulatedSE,
			TheoreticalSE: exp.Summary.TheoreticalSE,
			PValue:        exp.Summary.Normality.PValue,
			Passed:        exp.Summary.Normality.Passed,
		})
	}
	conv.NStar = nStar(conv.Points)
	return conv, nil
}

// nStar is the first size of the trailing run of passing points, 0 if the largest size fails
func nStar(points []stats.ConvergencePoint) int {
	n := 0
	for i := len(points) - 1; i >= 0 && points[i].Passed; i-- {
		n = points[i].SampleSize
	}
	return n
}

func (s *LabService) run(ctx context.Context, pop *population.Population, n int) (*stats.Experiment, error) {
	r, err := s.rng.Stream(ctx, "resample/"+pop.Family.Slug())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open resampling stream")
	}

	means := sampling.ResampleMeans(r, pop.Values, n, s.sampleCount)
	summary, err := sampling.Summarize(pop, means, n)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to summarize %s at n=%d", pop.Family, n)
	}
	summary.Normality = sampling.CheckNormality(s.normality, means)

	if summary.Normality.Err != "" {
		s.logger.Debug("normality test for %s at n=%d failed: %s", pop.Family, n, summary.Normality.Err)
	}

	return &stats.Experiment{
		Family:      pop.Family,
		SampleSize:  n,
		SampleCount: len(means),
		Means:       means,
		Summary:     summary,
	}, nil
}

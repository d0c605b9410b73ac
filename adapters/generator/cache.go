package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cltlab/domain/core"
	"cltlab/domain/population"
	"cltlab/internal"
	"cltlab/ports"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/singleflight"
)

// Cache generates each family's population once and serves the same instance afterwards.
// Entries are never invalidated or evicted.
type Cache struct {
	size   int
	rng    ports.RNGPort
	logger *internal.Logger

	mu      sync.RWMutex
	entries map[population.Family]*population.Population
	group   singleflight.Group
}

// NewCache creates a cache producing populations of the given size
func NewCache(size int, rng ports.RNGPort, logger *internal.Logger) (*Cache, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: population size %d", core.ErrEmptyPopulation, size)
	}
	return &Cache{
		size:    size,
		rng:     rng,
		logger:  logger.With("populations"),
		entries: make(map[population.Family]*population.Population),
	}, nil
}

// Size is the number of values in every population of this cache
func (c *Cache) Size() int { return c.size }

// Population returns the memoized population of family, generating it on first use.
// Concurrent first calls for the same family share one generation.
func (c *Cache) Population(ctx context.Context, family population.Family) (*population.Population, error) {
	family = family.OrDefault()

	c.mu.RLock()
	p, ok := c.entries[family]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := c.group.Do(family.Slug(), func() (interface{}, error) {
		c.mu.RLock()
		p, ok := c.entries[family]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		p, err := c.generate(ctx, family)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[family] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*population.Population), nil
}

// Cached reports whether family has already been generated
func (c *Cache) Cached(family population.Family) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[family.OrDefault()]
	return ok
}

func (c *Cache) generate(ctx context.Context, family population.Family) (*population.Population, error) {
	start := time.Now()

	r, err := c.rng.Stream(ctx, "population/"+family.Slug())
	if err != nil {
		return nil, fmt.Errorf("population stream for %s: %w", family, err)
	}

	values := Generate(family, c.size, r)

	mean, err := stats.Mean(values)
	if err != nil {
		return nil, fmt.Errorf("population mean for %s: %w", family, err)
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return nil, fmt.Errorf("population std dev for %s: %w", family, err)
	}

	c.logger.Debug("generated %s population (%d values, mean %.2f, sd %.2f) in %s",
		family, len(values), mean, sd, time.Since(start))

	return &population.Population{
		Family: family,
		Values: values,
		Mean:   mean,
		StdDev: sd,
	}, nil
}

package ports

import (
	"context"

	"cltlab/domain/population"
)

// PopulationSource returns the population of a family. Implementations memoize: repeated calls
// for the same family return the identical *Population.
type PopulationSource interface {
	Population(ctx context.Context, family population.Family) (*population.Population, error)
}

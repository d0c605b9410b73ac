package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort hands out independent random streams. A stream is owned by one goroutine.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error)

	// Stream creates a fresh stream for a named operation. With a configured base seed the
	// sequence of streams for a name is reproducible; otherwise it is entropy-seeded.
	Stream(ctx context.Context, name string) (*rand.Rand, error)
}

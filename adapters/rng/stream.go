package rng

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// StreamProvider implements ports.RNGPort on PCG generators.
//
// With a non-zero base seed every named stream is derived from (base seed, name, n) where n
// counts the streams already handed out for that name, so a process replays the same draws
// run after run. With a zero base seed streams are seeded from the runtime's entropy source.
type StreamProvider struct {
	baseSeed uint64

	mu       sync.Mutex
	counters map[string]uint64
}

// NewStreamProvider creates a provider; seed 0 selects entropy seeding
func NewStreamProvider(seed uint64) *StreamProvider {
	return &StreamProvider{
		baseSeed: seed,
		counters: make(map[string]uint64),
	}
}

// Deterministic reports whether streams are derived from a base seed
func (p *StreamProvider) Deterministic() bool {
	return p.baseSeed != 0
}

// SeededStream creates a deterministic random number generator for a named operation
func (p *StreamProvider) SeededStream(ctx context.Context, name string, seed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(seed, xxhash.Sum64String(name))), nil
}

// Stream creates an independent stream for a named operation
func (p *StreamProvider) Stream(ctx context.Context, name string) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.baseSeed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), nil
	}

	p.mu.Lock()
	n := p.counters[name]
	p.counters[name] = n + 1
	p.mu.Unlock()

	seq := xxhash.Sum64String(name + "#" + strconv.FormatUint(n, 10))
	return rand.New(rand.NewPCG(p.baseSeed, seq)), nil
}

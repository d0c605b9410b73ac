package normality

import (
	"math/rand/v2"
	"testing"

	"cltlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Reference values agree with R's shapiro.test.
func TestShapiroWilkReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		w    float64
		p    float64
	}{
		{
			name: "shapiro-wilk 1965 weights",
			xs:   []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236},
			w:    0.788815,
			p:    0.006704,
		},
		{
			name: "three equally spaced",
			xs:   []float64{1, 2, 3},
			w:    1,
			p:    1,
		},
		{
			name: "three points",
			xs:   []float64{1, 2, 4},
			w:    0.964286,
			p:    0.636887,
		},
		{
			name: "one to twenty",
			xs:   seq(1, 20),
			w:    0.960375,
			p:    0.551372,
		},
		{
			name: "first ten primes",
			xs:   []float64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29},
			w:    0.949426,
			p:    0.661711,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, p, err := ShapiroWilk(tt.xs)
			require.NoError(t, err)
			assert.InDelta(t, tt.w, w, 1e-5)
			assert.InDelta(t, tt.p, p, 1e-5)
		})
	}
}

func seq(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestShapiroWilkDetectsNonNormality(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))

	exp := make([]float64, 500)
	unif := make([]float64, 500)
	for i := range exp {
		exp[i] = r.ExpFloat64()
		unif[i] = r.Float64()
	}

	_, p, err := ShapiroWilk(exp)
	require.NoError(t, err)
	assert.Less(t, p, 1e-6)

	_, p, err = ShapiroWilk(unif)
	require.NoError(t, err)
	assert.Less(t, p, 1e-4)
}

func TestShapiroWilkAcceptsNormalData(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 3))

	// a level-0.05 test rejects normal data 5% of the time; require most of 20 runs to pass
	passed := 0
	for run := 0; run < 20; run++ {
		xs := make([]float64, 500)
		for i := range xs {
			xs[i] = 50 + 15*r.NormFloat64()
		}
		w, p, err := ShapiroWilk(xs)
		require.NoError(t, err)
		assert.Greater(t, w, 0.98)
		if p > 0.05 {
			passed++
		}
	}
	assert.GreaterOrEqual(t, passed, 15)
}

func TestShapiroWilkFailures(t *testing.T) {
	_, _, err := ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, _, err = ShapiroWilk(make([]float64, MaxSize+1))
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, _, err = ShapiroWilk([]float64{4, 4, 4, 4, 4})
	assert.ErrorIs(t, err, core.ErrDegenerateSample)

	_, _, err = ShapiroWilk([]float64{1, 2, 3, 4, nanValue()})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestShapiroWilkDoesNotReorderInput(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3}
	_, _, err := NewTester().ShapiroWilk(xs)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, xs)
}

// TestShapiroWilkAffineInvariance checks W and p are unchanged by shifting and positive scaling
// and always fall in [0, 1].
func TestShapiroWilkAffineInvariance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(3, 60).Draw(rt, "n")
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = rapid.Float64Range(-100, 100).Draw(rt, "x")
		}
		shift := rapid.Float64Range(-50, 50).Draw(rt, "shift")
		scale := rapid.Float64Range(0.5, 20).Draw(rt, "scale")

		w, p, err := ShapiroWilk(xs)
		if err != nil {
			// only a degenerate draw may fail
			require.ErrorIs(rt, err, core.ErrDegenerateSample)
			return
		}
		if w < 0 || w > 1 || p < 0 || p > 1 {
			rt.Fatalf("out of range: w=%v p=%v", w, p)
		}

		ys := make([]float64, n)
		for i, x := range xs {
			ys[i] = x*scale + shift
		}
		w2, p2, err := ShapiroWilk(ys)
		require.NoError(rt, err)
		if d := w - w2; d > 1e-9 || d < -1e-9 {
			rt.Fatalf("W changed under affine map: %v vs %v", w, w2)
		}
		if d := p - p2; d > 1e-6 || d < -1e-6 {
			rt.Fatalf("p changed under affine map: %v vs %v", p, p2)
		}
	})
}

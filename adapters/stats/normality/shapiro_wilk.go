// Package normality implements the Shapiro-Wilk test for departure from normality using
// Royston's 1995 approximation (algorithm AS R94) for the coefficients and the p-value.
package normality

import (
	"fmt"
	"math"
	"sort"

	"cltlab/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sample size limits of the approximation
const (
	MinSize = 3
	MaxSize = 5000
)

// polynomial coefficients from AS R94
var (
	c1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	c2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	c3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	c4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	c5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	c6 = []float64{-0.4803, -0.082676, 0.0030302}
	g  = []float64{-2.273, 0.459}
)

// Tester implements ports.NormalityTester
type Tester struct{}

// NewTester creates a Shapiro-Wilk tester
func NewTester() *Tester {
	return &Tester{}
}

// ShapiroWilk returns the W statistic and its p-value for xs, which is not modified.
// It fails with core.ErrInsufficientData outside [MinSize, MaxSize] values and with
// core.ErrDegenerateSample when all values are equal.
func (t *Tester) ShapiroWilk(xs []float64) (w, pValue float64, err error) {
	return ShapiroWilk(xs)
}

// ShapiroWilk is the function form of Tester.ShapiroWilk
func ShapiroWilk(xs []float64) (w, pValue float64, err error) {
	n := len(xs)
	if n < MinSize || n > MaxSize {
		return 0, 0, fmt.Errorf("%w: shapiro-wilk needs %d to %d values, got %d",
			core.ErrInsufficientData, MinSize, MaxSize, n)
	}

	x := make([]float64, n)
	copy(x, xs)
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: non-finite value", core.ErrInsufficientData)
		}
	}
	sort.Float64s(x)

	if x[n-1]-x[0] < 1e-19*math.Max(1, math.Abs(x[0])) {
		return 0, 0, core.ErrDegenerateSample
	}

	a := coefficients(n)

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	var ssq float64
	for _, v := range x {
		d := v - mean
		ssq += d * d
	}
	if ssq == 0 {
		return 0, 0, core.ErrDegenerateSample
	}

	var num float64
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}

	w = num * num / ssq
	if w > 1 {
		w = 1
	}
	return w, pValueOf(w, n), nil
}

// coefficients returns the first n/2 antisymmetric weights a_1..a_{n/2}
func coefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, half)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(c1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(c2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

// pValueOf is the upper-tail probability of W for a sample of size n
func pValueOf(w float64, n int) float64 {
	if n == 3 {
		const sixOverPi = 6 / math.Pi
		p := sixOverPi * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return clamp01(p)
	}

	an := float64(n)
	w1 := 1 - w
	if w1 <= 0 {
		return 1
	}
	y := math.Log(w1)

	var mu, sigma float64
	if n <= 11 {
		gamma := poly(g, an)
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu = poly(c3, an)
		sigma = math.Exp(poly(c4, an))
	} else {
		lx := math.Log(an)
		mu = poly(c5, lx)
		sigma = math.Exp(poly(c6, lx))
	}

	return clamp01(distuv.UnitNormal.Survival((y - mu) / sigma))
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

func clamp01(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

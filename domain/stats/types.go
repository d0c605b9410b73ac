package stats

import (
	"cltlab/domain/population"
)

// Fixed constants of the normality check
const (
	// NormalityCap is the number of leading sample means handed to the Shapiro-Wilk test
	NormalityCap = 500
	// NormalityAlpha is the p-value a sampling distribution must exceed to count as normal
	NormalityAlpha = 0.05
)

// Sample size bounds and the number of samples drawn per experiment
const (
	MinSampleSize      = 1
	MaxSampleSize      = 100
	DefaultSampleSize  = 2
	DefaultSampleCount = 2000
	// ConvergenceSampleSize is the rule-of-thumb n from which a sampling distribution is
	// drawn in the "converged" color
	ConvergenceSampleSize = 30
)

// Normality is the outcome of a Shapiro-Wilk test on a prefix of the sample means.
// A failed test (degenerate input) reports PValue 0 and Err set.
type Normality struct {
	W      float64 `json:"w"`
	PValue float64 `json:"p_value"`
	Tested int     `json:"tested"`
	Passed bool    `json:"passed"`
	Err    string  `json:"error,omitempty"`
}

// Verdict is the human label for the normality outcome
func (n Normality) Verdict() string {
	if n.Passed {
		return "normal enough"
	}
	return "not yet normal"
}

// Summary holds every scalar derived from a population and its sample-mean set
type Summary struct {
	PopulationMean   float64 `json:"population_mean"`
	PopulationStdDev float64 `json:"population_std_dev"`
	SamplingMean     float64 `json:"sampling_mean"`
	SimulatedSE      float64 `json:"simulated_se"`
	TheoreticalSE    float64 `json:"theoretical_se"`
	SampleSize       int     `json:"sample_size"`
	SampleCount      int     `json:"sample_count"`

	Normality *Normality `json:"normality,omitempty"`
}

// SERatio compares the simulated standard error with the CLT prediction
func (s Summary) SERatio() float64 {
	if s.TheoreticalSE == 0 {
		return 0
	}
	return s.SimulatedSE / s.TheoreticalSE
}

// Experiment is one resampling run: the sample means of a family at a given n plus their summary
type Experiment struct {
	Family      population.Family `json:"family"`
	SampleSize  int               `json:"sample_size"`
	SampleCount int               `json:"sample_count"`
	Means       []float64         `json:"means,omitempty"`
	Summary     Summary           `json:"summary"`
}

// Converging reports whether n has reached the rule-of-thumb threshold
func (e *Experiment) Converging() bool {
	return e.SampleSize >= ConvergenceSampleSize
}

// ConvergencePoint is one row of a sample-size sweep
type ConvergencePoint struct {
	SampleSize    int     `json:"sample_size"`
	SimulatedSE   float64 `json:"simulated_se"`
	TheoreticalSE float64 `json:"theoretical_se"`
	PValue        float64 `json:"p_value"`
	Passed        bool    `json:"passed"`
}

// Convergence is the result of sweeping n for one family
type Convergence struct {
	Family population.Family  `json:"family"`
	Points []ConvergencePoint `json:"points"`
	// NStar is the smallest tested n from which every larger tested n passed; 0 if none.
	NStar int `json:"n_star"`
}

package population

// Population is one synthetic world: a fixed, immutable collection of draws from a family.
// Values must not be modified by callers.
type Population struct {
	Family Family
	Values []float64

	// Mean and StdDev are the population (ddof=0) moments of Values, computed once.
	Mean   float64
	StdDev float64
}

// Size returns the number of values in the population
func (p *Population) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Values)
}

package ports

// NormalityTester tests a sample for departure from normality
type NormalityTester interface {
	// ShapiroWilk returns the W statistic and its p-value
	ShapiroWilk(xs []float64) (w, pValue float64, err error)
}

package model

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanSquaredError is the average squared residual. Empty input yields 0.
func MeanSquaredError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue))
}

// R2 is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise, so the result is always finite.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	if floats.Max(yTrue) == floats.Min(yTrue) {
		if floats.Distance(yTrue, yPred, 2) == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(yPred, yTrue, nil)
}

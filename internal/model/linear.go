package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rcond is the relative singular value cutoff for the least-squares solve.
const rcond = 1e-12

// LinearRegression is an ordinary least-squares fit with intercept.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

// FitLinear solves the centred least-squares problem with an SVD, which yields
// the minimum-norm solution when columns are constant or collinear.
func FitLinear(x [][]float64, y []float64) (*LinearRegression, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit linear: %d rows, %d targets", n, len(y))
	}
	p := len(x[0])

	means := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		means[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	a := mat.NewDense(n, p, nil)
	b := mat.NewDense(n, 1, nil)
	for i, row := range x {
		for j, v := range row {
			a.Set(i, j, v-means[j])
		}
		b.Set(i, 0, y[i]-yMean)
	}

	lr := &LinearRegression{Coef: make([]float64, p), Intercept: yMean}
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("fit linear: svd factorization failed")
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		// every column constant: the mean is the best fit
		return lr, nil
	}
	var beta mat.Dense
	svd.SolveTo(&beta, b, rank)
	for j := 0; j < p; j++ {
		lr.Coef[j] = beta.At(j, 0)
		lr.Intercept -= lr.Coef[j] * means[j]
	}
	return lr, nil
}

// Predict returns the fitted value for one row.
func (lr *LinearRegression) Predict(row []float64) float64 {
	v := lr.Intercept
	for j, c := range lr.Coef {
		v += c * row[j]
	}
	return v
}

// PredictAll predicts every row.
func (lr *LinearRegression) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = lr.Predict(row)
	}
	return out
}

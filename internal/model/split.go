package model

import (
	"math"
	"math/rand"
)

// Split shuffles the row indices with a seeded Fisher-Yates permutation and
// returns ceil(testSize*n) of them as the test split.
func Split(n int, testSize float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest > n {
		nTest = n
	}
	return idx[nTest:], idx[:nTest]
}

func take(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// KFold returns unshuffled contiguous folds. The first n%k folds hold one extra row.
func KFold(n, k int) [][]int {
	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		fold := make([]int, size)
		for i := range fold {
			fold[i] = start + i
		}
		folds[f] = fold
		start += size
	}
	return folds
}

// complement returns 0..n-1 without the indices of fold, which must be contiguous.
func complement(n int, fold []int) []int {
	if len(fold) == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	lo, hi := fold[0], fold[len(fold)-1]
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if i < lo || i > hi {
			out = append(out, i)
		}
	}
	return out
}

package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// TrainTestSplit shuffles row indices with the given seed and carves off the
// trailing testFraction as the held-out set. Evaluation metrics are
// reproducible across runs because the permutation depends only on (n, seed).
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testN := int(math.Ceil(testFraction * float64(n)))
	if testN > n {
		testN = n
	}
	return perm[testN:], perm[:testN]
}

// SubsetRows copies the selected rows of X into a new matrix.
func SubsetRows(X *mat.Dense, idx []int) *mat.Dense {
	_, p := X.Dims()
	out := mat.NewDense(len(idx), p, nil)
	row := make([]float64, p)
	for i, s := range idx {
		mat.Row(row, s, X)
		out.SetRow(i, row)
	}
	return out
}

// SubsetVec copies the selected entries of y.
func SubsetVec(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, s := range idx {
		out[i] = y[s]
	}
	return out
}

// MAE is the mean absolute error between predictions and actuals. It is the
// quality signal logged after every training run, never a gate.
func MAE(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i := range pred {
		sum += math.Abs(pred[i] - actual[i])
	}
	return sum / float64(len(pred))
}

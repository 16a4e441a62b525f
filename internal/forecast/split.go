package forecast

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles [0, n) with the seed and holds out ceil(testSize*n)
// indices for validation. Both slices keep the shuffled order.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

// Accuracy is the share of samples the classifier labels correctly
func Accuracy(c Classifier, x [][]float64, y []bool) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	hits := 0
	for i := range x {
		if c.Predict(x[i]) == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(x))
}

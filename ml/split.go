package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Split is a train/test partition of a labelled feature matrix.
type Split struct {
	TrainX [][]float64
	TrainY []int
	TestX  [][]float64
	TestY  []int
}

// TrainTestSplit shuffles rows with a PRNG seeded by seed and holds out
// ceil(n*testRatio) rows for testing.
func TrainTestSplit(features [][]float64, labels []int, testRatio float64, seed int64) (Split, error) {
	if len(features) != len(labels) {
		return Split{}, ErrSizeMismatch
	}
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("test ratio must be in (0, 1), got %v", testRatio)
	}
	n := len(features)
	testSize := int(math.Ceil(float64(n) * testRatio))
	trainSize := n - testSize
	if testSize == 0 || trainSize == 0 {
		return Split{}, errors.New("not enough rows to split into train and test sets")
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)

	split := Split{
		TrainX: make([][]float64, 0, trainSize),
		TrainY: make([]int, 0, trainSize),
		TestX:  make([][]float64, 0, testSize),
		TestY:  make([]int, 0, testSize),
	}
	for i, idx := range indices {
		if i < testSize {
			split.TestX = append(split.TestX, features[idx])
			split.TestY = append(split.TestY, labels[idx])
		} else {
			split.TrainX = append(split.TrainX, features[idx])
			split.TrainY = append(split.TrainY, labels[idx])
		}
	}
	return split, nil
}

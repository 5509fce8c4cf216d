package ml

import "errors"

// Classifier fits a Model to labelled feature vectors.
type Classifier interface {
	Fit(features [][]float64, labels []int) (Model, error)
	Name() string
}

// Model predicts one label per feature vector.
type Model interface {
	Predict(features [][]float64) ([]int, error)
}

var (
	ErrEmptyTrainingSet  = errors.New("features or labels empty")
	ErrSizeMismatch      = errors.New("features and labels size mismatch")
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
	ErrNotTrained        = errors.New("model not trained")
)

func checkTrainingSet(features [][]float64, labels []int) (int, error) {
	if len(features) == 0 || len(labels) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return 0, ErrSizeMismatch
	}
	dim := len(features[0])
	for _, feature := range features {
		if len(feature) != dim {
			return 0, ErrDimensionMismatch
		}
	}
	return dim, nil
}

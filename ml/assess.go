package ml

import (
	"fmt"
)

// Report is the outcome of fitting on a split's training rows and scoring its test rows.
type Report struct {
	Classifier  string          `json:"classifier"`
	TrainSize   int             `json:"train_size"`
	TestSize    int             `json:"test_size"`
	Counts      ConfusionCounts `json:"counts"`
	Predictions []int           `json:"-"`
}

func Assess(clf Classifier, split Split) (*Report, error) {
	model, err := clf.Fit(split.TrainX, split.TrainY)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", clf.Name(), err)
	}
	predictions, err := model.Predict(split.TestX)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", clf.Name(), err)
	}
	counts, err := Confusion(split.TestY, predictions)
	if err != nil {
		return nil, err
	}
	return &Report{
		Classifier:  clf.Name(),
		TrainSize:   len(split.TrainX),
		TestSize:    len(split.TestX),
		Counts:      counts,
		Predictions: predictions,
	}, nil
}

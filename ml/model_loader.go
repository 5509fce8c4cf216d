package ml

import (
	"fmt"
)

const (
	ModelKNN          = "knn"
	ModelDecisionTree = "decision_tree"
)

// ClassifierOptions selects and parameterises a classifier.
type ClassifierOptions struct {
	Type      string
	K         int
	MaxDepth  int
	Normalize bool
	CacheSize int
}

func NewClassifier(opts ClassifierOptions) (Classifier, error) {
	var clf Classifier
	switch opts.Type {
	case ModelKNN, "":
		if opts.K < 1 {
			return nil, fmt.Errorf("k must be at least 1, got %d", opts.K)
		}
		clf = &KNN{K: opts.K, CacheSize: opts.CacheSize}
	case ModelDecisionTree:
		clf = NewDecisionTree(opts.MaxDepth)
	default:
		return nil, fmt.Errorf("unsupported model type %q", opts.Type)
	}
	if opts.Normalize {
		clf = &Scaled{Inner: clf}
	}
	return clf, nil
}

// LoadModel restores a persisted model. Only decision trees are persisted;
// a k-NN model is its training set.
func LoadModel(modelType, path string) (Model, error) {
	switch modelType {
	case ModelDecisionTree:
		return LoadTree(path)
	default:
		return nil, fmt.Errorf("model type %q cannot be loaded from disk", modelType)
	}
}

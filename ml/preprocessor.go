package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler rescales each column to [0, 1] using bounds seen at fit time.
type MinMaxScaler struct {
	mins []float64
	maxs []float64
}

func (s *MinMaxScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	dim := len(features[0])
	s.mins = make([]float64, dim)
	s.maxs = make([]float64, dim)
	column := make([]float64, len(features))
	for j := 0; j < dim; j++ {
		for i, feature := range features {
			if len(feature) != dim {
				return ErrDimensionMismatch
			}
			column[i] = feature[j]
		}
		s.mins[j] = floats.Min(column)
		s.maxs[j] = floats.Max(column)
	}
	return nil
}

func (s *MinMaxScaler) Transform(features [][]float64) ([][]float64, error) {
	if s.mins == nil {
		return nil, errors.New("feature stats not computed")
	}
	vectors := make([][]float64, len(features))
	for i, feature := range features {
		normalized, err := NormalizeVector(feature, s.mins, s.maxs)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		vectors[i] = normalized
	}
	return vectors, nil
}

// Bounds returns copies of the fitted per-column minimum and maximum.
func (s *MinMaxScaler) Bounds() (mins, maxs []float64) {
	return append([]float64(nil), s.mins...), append([]float64(nil), s.maxs...)
}

// NormalizeFeature maps value into [0, 1]; constant columns map to 0.
// Values outside the fitted range fall outside [0, 1].
func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, ErrDimensionMismatch
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}

// Scaled fits a MinMaxScaler on the training set and applies it before the inner classifier.
type Scaled struct {
	Inner Classifier
}

func (s *Scaled) Name() string {
	return "scaled " + s.Inner.Name()
}

func (s *Scaled) Fit(features [][]float64, labels []int) (Model, error) {
	if _, err := checkTrainingSet(features, labels); err != nil {
		return nil, err
	}
	scaler := &MinMaxScaler{}
	if err := scaler.Fit(features); err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(features)
	if err != nil {
		return nil, err
	}
	model, err := s.Inner.Fit(scaled, labels)
	if err != nil {
		return nil, err
	}
	return &scaledModel{scaler: scaler, model: model}, nil
}

type scaledModel struct {
	scaler *MinMaxScaler
	model  Model
}

func (m *scaledModel) Predict(features [][]float64) ([]int, error) {
	scaled, err := m.scaler.Transform(features)
	if err != nil {
		return nil, err
	}
	return m.model.Predict(scaled)
}

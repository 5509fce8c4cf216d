package ml

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("actual and predicted length mismatch")
	ErrNonBinaryLabel = errors.New("label must be 0 or 1")
)

// ConfusionCounts tallies binary predictions against actual labels. 1 is positive.
type ConfusionCounts struct {
	TruePositives  int `json:"true_positives"`
	FalseNegatives int `json:"false_negatives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
}

func Confusion(actual, predicted []int) (ConfusionCounts, error) {
	var counts ConfusionCounts
	if len(actual) != len(predicted) {
		return counts, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(actual), len(predicted))
	}
	for i := range actual {
		a, p := actual[i], predicted[i]
		if (a != 0 && a != 1) || (p != 0 && p != 1) {
			return ConfusionCounts{}, fmt.Errorf("%w: index %d actual=%d predicted=%d", ErrNonBinaryLabel, i, a, p)
		}
		switch {
		case a == 1 && p == 1:
			counts.TruePositives++
		case a == 1:
			counts.FalseNegatives++
		case p == 0:
			counts.TrueNegatives++
		default:
			counts.FalsePositives++
		}
	}
	return counts, nil
}

// Evaluate returns the true positive rate and true negative rate.
// A rate whose class never occurs in actual is 0.
func Evaluate(actual, predicted []int) (sensitivity, specificity float64, err error) {
	counts, err := Confusion(actual, predicted)
	if err != nil {
		return 0, 0, err
	}
	return counts.Sensitivity(), counts.Specificity(), nil
}

func (c ConfusionCounts) Positives() int { return c.TruePositives + c.FalseNegatives }
func (c ConfusionCounts) Negatives() int { return c.TrueNegatives + c.FalsePositives }
func (c ConfusionCounts) Total() int     { return c.Positives() + c.Negatives() }
func (c ConfusionCounts) Correct() int   { return c.TruePositives + c.TrueNegatives }
func (c ConfusionCounts) Incorrect() int { return c.FalsePositives + c.FalseNegatives }

func (c ConfusionCounts) SensitivityDefined() bool { return c.Positives() > 0 }
func (c ConfusionCounts) SpecificityDefined() bool { return c.Negatives() > 0 }

func (c ConfusionCounts) Sensitivity() float64 {
	return ratio(c.TruePositives, c.Positives())
}

func (c ConfusionCounts) Specificity() float64 {
	return ratio(c.TrueNegatives, c.Negatives())
}

func (c ConfusionCounts) Accuracy() float64 {
	return ratio(c.Correct(), c.Total())
}

// BalancedAccuracy averages the two rates, ignoring an undefined one.
func (c ConfusionCounts) BalancedAccuracy() float64 {
	switch {
	case c.SensitivityDefined() && c.SpecificityDefined():
		return (c.Sensitivity() + c.Specificity()) / 2
	case c.SensitivityDefined():
		return c.Sensitivity()
	case c.SpecificityDefined():
		return c.Specificity()
	default:
		return 0
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

package ml

import "testing"

func TestAssess(t *testing.T) {
	split := Split{
		TrainX: [][]float64{{0}, {1}, {10}, {11}},
		TrainY: []int{0, 0, 1, 1},
		TestX:  [][]float64{{0.5}, {10.5}, {2}, {9}},
		TestY:  []int{0, 1, 1, 0},
	}

	report, err := Assess(NewKNN(1), split)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TrainSize != 4 || report.TestSize != 4 {
		t.Fatalf("unexpected sizes: %+v", report)
	}
	want := ConfusionCounts{TruePositives: 1, FalseNegatives: 1, TrueNegatives: 1, FalsePositives: 1}
	if report.Counts != want {
		t.Fatalf("expected %+v, got %+v", want, report.Counts)
	}
	if report.Classifier != "knn(k=1)" {
		t.Fatalf("unexpected classifier name %q", report.Classifier)
	}
	if len(report.Predictions) != 4 {
		t.Fatalf("expected 4 predictions, got %d", len(report.Predictions))
	}
}

func TestAssessFitError(t *testing.T) {
	split := Split{TrainX: [][]float64{{0}}, TrainY: []int{0}, TestX: [][]float64{{0}}, TestY: []int{0}}
	if _, err := Assess(&KNN{K: 5}, split); err == nil {
		t.Fatal("expected fit error when k exceeds training size")
	}
}

package pipeline

import "testing"

func TestNewInspector(t *testing.T) {
	inspector := NewInspector()
	if len(inspector.Rules()) == 0 {
		t.Fatal("No default rules added")
	}
}

func TestRateRangeRule(t *testing.T) {
	rule := NewRateRangeRule()

	tests := []struct {
		name    string
		record  EvidenceRecord
		wantErr bool
	}{
		{name: "valid rates", record: EvidenceRecord{BounceRates: 0.02, ExitRates: 0.05}},
		{name: "bounce above one", record: EvidenceRecord{BounceRates: 1.2, ExitRates: 0.05}, wantErr: true},
		{name: "negative exit", record: EvidenceRecord{BounceRates: 0.2, ExitRates: -0.1}, wantErr: true},
		{name: "boundaries", record: EvidenceRecord{BounceRates: 0, ExitRates: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Check(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("RateRangeRule.Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNonNegativeRule(t *testing.T) {
	rule := NewNonNegativeRule()

	tests := []struct {
		name    string
		record  EvidenceRecord
		wantErr bool
	}{
		{name: "zeros", record: EvidenceRecord{}},
		{name: "negative count", record: EvidenceRecord{ProductRelated: -1}, wantErr: true},
		{name: "negative duration", record: EvidenceRecord{AdministrativeDuration: -5}, wantErr: true},
		{name: "negative page value", record: EvidenceRecord{PageValues: -0.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Check(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("NonNegativeRule.Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInspectReportsLinesWithoutDropping(t *testing.T) {
	dataset := &Dataset{
		Evidence: []EvidenceRecord{
			{BounceRates: 0.1, ExitRates: 0.1},
			{BounceRates: 2, ExitRates: 0.1, SpecialDay: 3},
			{BounceRates: 0.1, ExitRates: 0.1, Informational: -2},
		},
		Labels: []int{0, 1, 0},
		Lines:  []int{2, 3, 4},
	}

	report := NewInspector().Inspect(dataset)
	if report.Inspected != 3 {
		t.Fatalf("expected 3 inspected, got %d", report.Inspected)
	}
	if report.Flagged != 2 {
		t.Fatalf("expected 2 flagged, got %d", report.Flagged)
	}
	if len(report.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %+v", len(report.Issues), report.Issues)
	}
	if report.Issues[0].Line != 3 || report.Issues[0].Rule != "rate_range" {
		t.Fatalf("unexpected first issue: %+v", report.Issues[0])
	}
	if report.ByRule["special_day"] != 1 || report.ByRule["non_negative"] != 1 {
		t.Fatalf("unexpected per-rule counts: %v", report.ByRule)
	}
	names := report.RuleNames()
	if len(names) != 3 || names[0] != "non_negative" {
		t.Fatalf("unexpected rule names: %v", names)
	}
	if dataset.Len() != 3 {
		t.Fatal("inspection must not drop records")
	}
}

package pipeline

import (
	"fmt"
	"sort"
)

// QualityRule checks a single record. A non-nil error is reported as an issue.
type QualityRule interface {
	Check(EvidenceRecord) error
	Name() string
}

// QualityIssue is one rule violation on one row.
type QualityIssue struct {
	Rule    string `json:"rule"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// QualityReport summarises an inspection pass.
type QualityReport struct {
	Inspected int              `json:"inspected"`
	Flagged   int              `json:"flagged"`
	Issues    []QualityIssue   `json:"issues"`
	ByRule    map[string]int64 `json:"by_rule"`
}

// Inspector runs quality rules over a dataset. Issues are warnings; records are never dropped.
type Inspector struct {
	rules []QualityRule
}

// NewInspector returns an inspector with the default rules.
func NewInspector() *Inspector {
	inspector := &Inspector{}
	inspector.AddRule(NewNonNegativeRule())
	inspector.AddRule(NewRateRangeRule())
	inspector.AddRule(NewSpecialDayRule())
	return inspector
}

func (in *Inspector) AddRule(rule QualityRule) {
	in.rules = append(in.rules, rule)
}

// Rules returns the rule names in evaluation order.
func (in *Inspector) Rules() []string {
	names := make([]string, len(in.rules))
	for i, rule := range in.rules {
		names[i] = rule.Name()
	}
	return names
}

// Inspect applies every rule to every record.
func (in *Inspector) Inspect(dataset *Dataset) QualityReport {
	report := QualityReport{ByRule: make(map[string]int64)}
	for i, record := range dataset.Evidence {
		report.Inspected++
		line := 0
		if i < len(dataset.Lines) {
			line = dataset.Lines[i]
		}

		flagged := false
		for _, rule := range in.rules {
			if err := rule.Check(record); err != nil {
				report.Issues = append(report.Issues, QualityIssue{
					Rule:    rule.Name(),
					Line:    line,
					Message: err.Error(),
				})
				report.ByRule[rule.Name()]++
				flagged = true
			}
		}
		if flagged {
			report.Flagged++
		}
	}
	return report
}

// RuleNames returns the rules that raised issues, sorted.
func (r QualityReport) RuleNames() []string {
	names := make([]string, 0, len(r.ByRule))
	for name := range r.ByRule {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default rules.

// NonNegativeRule rejects negative page counts and durations.
type NonNegativeRule struct{}

func NewNonNegativeRule() *NonNegativeRule {
	return &NonNegativeRule{}
}

func (r *NonNegativeRule) Name() string {
	return "non_negative"
}

func (r *NonNegativeRule) Check(record EvidenceRecord) error {
	counts := map[string]int{
		ColAdministrative: record.Administrative,
		ColInformational:  record.Informational,
		ColProductRelated: record.ProductRelated,
	}
	for _, name := range []string{ColAdministrative, ColInformational, ColProductRelated} {
		if counts[name] < 0 {
			return fmt.Errorf("%s is negative: %d", name, counts[name])
		}
	}

	durations := []struct {
		name  string
		value float64
	}{
		{ColAdministrativeDuration, record.AdministrativeDuration},
		{ColInformationalDuration, record.InformationalDuration},
		{ColProductRelatedDuration, record.ProductRelatedDuration},
		{ColPageValues, record.PageValues},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%s is negative: %.4f", d.name, d.value)
		}
	}
	return nil
}

// RateRangeRule requires bounce and exit rates within [Min, Max].
type RateRangeRule struct {
	Min float64
	Max float64
}

func NewRateRangeRule() *RateRangeRule {
	return &RateRangeRule{Min: 0, Max: 1}
}

func (r *RateRangeRule) Name() string {
	return "rate_range"
}

func (r *RateRangeRule) Check(record EvidenceRecord) error {
	if record.BounceRates < r.Min || record.BounceRates > r.Max {
		return fmt.Errorf("%s %.4f out of range [%.2f, %.2f]", ColBounceRates, record.BounceRates, r.Min, r.Max)
	}
	if record.ExitRates < r.Min || record.ExitRates > r.Max {
		return fmt.Errorf("%s %.4f out of range [%.2f, %.2f]", ColExitRates, record.ExitRates, r.Min, r.Max)
	}
	return nil
}

// SpecialDayRule SpecialDay is a closeness score in [0, 1].
type SpecialDayRule struct{}

func NewSpecialDayRule() *SpecialDayRule {
	return &SpecialDayRule{}
}

func (r *SpecialDayRule) Name() string {
	return "special_day"
}

func (r *SpecialDayRule) Check(record EvidenceRecord) error {
	if record.SpecialDay < 0 || record.SpecialDay > 1 {
		return fmt.Errorf("%s %.2f out of range [0, 1]", ColSpecialDay, record.SpecialDay)
	}
	return nil
}

package pipeline

// EvidenceRecord is one browsing session in fixed feature order.
type EvidenceRecord struct {
	Administrative         int
	AdministrativeDuration float64
	Informational          int
	InformationalDuration  float64
	ProductRelated         int
	ProductRelatedDuration float64
	BounceRates            float64
	ExitRates              float64
	PageValues             float64
	SpecialDay             float64
	Month                  int
	OperatingSystems       int
	Browser                int
	Region                 int
	TrafficType            int
	VisitorType            int
	Weekend                int
}

// Dataset holds evidence and labels aligned by index, in file row order.
// Lines records the source line of each row for diagnostics.
type Dataset struct {
	Evidence []EvidenceRecord
	Labels   []int
	Lines    []int
}

// Len returns the number of sessions.
func (d *Dataset) Len() int {
	return len(d.Evidence)
}

// Positives counts sessions that ended in a purchase.
func (d *Dataset) Positives() int {
	n := 0
	for _, label := range d.Labels {
		if label == 1 {
			n++
		}
	}
	return n
}

// Vectors projects every record into a feature matrix.
func (d *Dataset) Vectors() [][]float64 {
	vectors := make([][]float64, len(d.Evidence))
	for i, record := range d.Evidence {
		vectors[i] = record.Vector()
	}
	return vectors
}

// Vector returns the record's fields in the order given by FeatureNames.
func (r EvidenceRecord) Vector() []float64 {
	return []float64{
		float64(r.Administrative),
		r.AdministrativeDuration,
		float64(r.Informational),
		r.InformationalDuration,
		float64(r.ProductRelated),
		r.ProductRelatedDuration,
		r.BounceRates,
		r.ExitRates,
		r.PageValues,
		r.SpecialDay,
		float64(r.Month),
		float64(r.OperatingSystems),
		float64(r.Browser),
		float64(r.Region),
		float64(r.TrafficType),
		float64(r.VisitorType),
		float64(r.Weekend),
	}
}

func FeatureNames() []string {
	return []string{
		ColAdministrative,
		ColAdministrativeDuration,
		ColInformational,
		ColInformationalDuration,
		ColProductRelated,
		ColProductRelatedDuration,
		ColBounceRates,
		ColExitRates,
		ColPageValues,
		ColSpecialDay,
		ColMonth,
		ColOperatingSystems,
		ColBrowser,
		ColRegion,
		ColTrafficType,
		ColVisitorType,
		ColWeekend,
	}
}

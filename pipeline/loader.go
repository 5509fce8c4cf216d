package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSV column names.
const (
	ColAdministrative         = "Administrative"
	ColAdministrativeDuration = "Administrative_Duration"
	ColInformational          = "Informational"
	ColInformationalDuration  = "Informational_Duration"
	ColProductRelated         = "ProductRelated"
	ColProductRelatedDuration = "ProductRelated_Duration"
	ColBounceRates            = "BounceRates"
	ColExitRates              = "ExitRates"
	ColPageValues             = "PageValues"
	ColSpecialDay             = "SpecialDay"
	ColMonth                  = "Month"
	ColOperatingSystems       = "OperatingSystems"
	ColBrowser                = "Browser"
	ColRegion                 = "Region"
	ColTrafficType            = "TrafficType"
	ColVisitorType            = "VisitorType"
	ColWeekend                = "Weekend"
	ColRevenue                = "Revenue"
)

// Columns lists the header the loader expects, in canonical order.
func Columns() []string {
	return append(FeatureNames(), ColRevenue)
}

var months = map[string]int{
	"Jan":  0,
	"Feb":  1,
	"Mar":  2,
	"Apr":  3,
	"May":  4,
	"June": 5,
	"Jul":  6,
	"Aug":  7,
	"Sep":  8,
	"Oct":  9,
	"Nov":  10,
	"Dec":  11,
}

var bools = map[string]int{
	"TRUE":  1,
	"FALSE": 0,
}

var visitors = map[string]int{
	"Returning_Visitor": 1,
	"New_Visitor":       0,
	"Other":             0,
}

var (
	ErrUnknownMonth   = errors.New("unknown month")
	ErrInvalidBoolean = errors.New("expected TRUE or FALSE")
	ErrHeader         = errors.New("invalid header")
	ErrNonFinite      = errors.New("expected a finite decimal number")
)

// Load reads shopping sessions from the CSV file at path.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer file.Close()

	dataset, err := Read(file)
	if err != nil {
		var readErr *IOError
		if errors.As(err, &readErr) {
			readErr.Path = path
		}
		return nil, err
	}
	return dataset, nil
}

// Read parses shopping sessions from r. A leading UTF-8 byte order mark is dropped.
func Read(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: file is empty", ErrHeader)}
	}
	if err != nil {
		return nil, wrapReadError(err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	dataset := &Dataset{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapReadError(err)
		}
		line, _ := reader.FieldPos(0)

		p := rowParser{row: row, index: index, line: line}
		record := p.evidence()
		label := p.boolean(ColRevenue)
		if p.err != nil {
			return nil, p.err
		}

		dataset.Evidence = append(dataset.Evidence, record)
		dataset.Labels = append(dataset.Labels, label)
		dataset.Lines = append(dataset.Lines, line)
	}

	if len(dataset.Evidence) != len(dataset.Labels) {
		return nil, &IntegrityError{Evidence: len(dataset.Evidence), Labels: len(dataset.Labels)}
	}
	return dataset, nil
}

func wrapReadError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &IOError{Err: err}
}

func headerIndex(header []string) (map[string]int, error) {
	expected := make(map[string]bool)
	for _, name := range Columns() {
		expected[name] = true
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if !expected[name] {
			return nil, fmt.Errorf("%w: unexpected column %q", ErrHeader, name)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrHeader, name)
		}
		index[name] = i
	}
	for _, name := range Columns() {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrHeader, name)
		}
	}
	return index, nil
}

// rowParser converts one CSV row, keeping the first error it hits.
type rowParser struct {
	row   []string
	index map[string]int
	line  int
	err   error
}

func (p *rowParser) evidence() EvidenceRecord {
	return EvidenceRecord{
		Administrative:         p.integer(ColAdministrative),
		AdministrativeDuration: p.float(ColAdministrativeDuration),
		Informational:          p.integer(ColInformational),
		InformationalDuration:  p.float(ColInformationalDuration),
		ProductRelated:         p.integer(ColProductRelated),
		ProductRelatedDuration: p.float(ColProductRelatedDuration),
		BounceRates:            p.float(ColBounceRates),
		ExitRates:              p.float(ColExitRates),
		PageValues:             p.float(ColPageValues),
		SpecialDay:             p.float(ColSpecialDay),
		Month:                  p.month(ColMonth),
		OperatingSystems:       p.integer(ColOperatingSystems),
		Browser:                p.integer(ColBrowser),
		Region:                 p.integer(ColRegion),
		TrafficType:            p.integer(ColTrafficType),
		VisitorType:            p.visitor(ColVisitorType),
		Weekend:                p.boolean(ColWeekend),
	}
}

func (p *rowParser) field(column string) string {
	return p.row[p.index[column]]
}

func (p *rowParser) fail(column, value string, err error) {
	if p.err == nil {
		p.err = &ParseError{Line: p.line, Column: column, Value: value, Err: err}
	}
}

func (p *rowParser) integer(column string) int {
	raw := p.field(column)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.fail(column, raw, errors.Unwrap(err))
		return 0
	}
	return v
}

func (p *rowParser) float(column string) float64 {
	raw := p.field(column)
	text := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.fail(column, raw, errors.Unwrap(err))
		return 0
	}
	// ParseFloat also takes NaN, Inf and hex mantissas.
	if math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsAny(text, "xX") {
		p.fail(column, raw, ErrNonFinite)
		return 0
	}
	return v
}

func (p *rowParser) month(column string) int {
	raw := p.field(column)
	v, ok := months[raw]
	if !ok {
		p.fail(column, raw, ErrUnknownMonth)
	}
	return v
}

func (p *rowParser) boolean(column string) int {
	raw := p.field(column)
	v, ok := bools[raw]
	if !ok {
		p.fail(column, raw, ErrInvalidBoolean)
	}
	return v
}

// visitor maps anything other than a returning visitor to 0.
func (p *rowParser) visitor(column string) int {
	return visitors[p.field(column)]
}

package pipeline

import "fmt"

// IOError reports a failure to open or read the data file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports a row or field that could not be converted.
// Line is the 1-based line in the file; the header is line 1.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IntegrityError reports evidence and labels that fell out of step.
// It indicates a loader bug.
type IntegrityError struct {
	Evidence int
	Labels   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("evidence length %d does not match label length %d", e.Evidence, e.Labels)
}

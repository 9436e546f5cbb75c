// Package dataset decodes the staged series and population objects into
// typed records.
package dataset

import "fmt"

// ParseError reports input whose structure cannot be decoded
type ParseError struct {
	Dataset string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Dataset, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Dataset, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CoercionError reports a field that could not be converted to its numeric type
type CoercionError struct {
	Dataset string
	Field   string
	Row     int // zero-based data row
	Value   string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("coerce %s: row %d: field %q: non-numeric value %q", e.Dataset, e.Row, e.Field, e.Value)
}

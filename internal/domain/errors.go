package domain

import (
	"errors"
	"fmt"
)

// ErrNoDataForDay signals that no selected record contributed a single sample
// to the target day. Callers skip the day; it is not a structural failure.
var ErrNoDataForDay = errors.New("no data for target day")

// MissingVariableError reports a record that lacks a required variable.
// Subject identifies the offending record when known (e.g. "record 2",
// "lidar source").
type MissingVariableError struct {
	Subject  string
	Variable string
}

func (e *MissingVariableError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("missing required variable %q", e.Variable)
	}
	return fmt.Sprintf("%s: missing required variable %q", e.Subject, e.Variable)
}

// InconsistentAxisError reports a shared (non-time) variable whose values
// differ across the records selected for one day.
type InconsistentAxisError struct {
	Variable string
	Record   int // index of the disagreeing record
}

func (e *InconsistentAxisError) Error() string {
	return fmt.Sprintf("shared variable %q differs in record %d", e.Variable, e.Record)
}

// MalformedCodeError reports a fused-grid cell holding a code outside the
// closed enumeration.
type MalformedCodeError struct {
	TimeIndex int
	Elevation int64
	Code      int64
}

func (e *MalformedCodeError) Error() string {
	return fmt.Sprintf("malformed mask code %d at time index %d, elevation %d",
		e.Code, e.TimeIndex, e.Elevation)
}

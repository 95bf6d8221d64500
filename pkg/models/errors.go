package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelNotTrained is returned when inference is attempted before a model
// has been fit.
var ErrModelNotTrained = errors.New("model not trained")

// DataLoadError reports a dataset that cannot be turned into a model:
// missing file, missing column, malformed row, unmapped label or a
// constant feature.
type DataLoadError struct {
	Path   string
	Line   int    // 1-based line in the dataset, 0 when not row specific
	Column string // offending column, if any
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	b.WriteString("data load")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// Validation constraints reported by ValidationError.
const (
	ConstraintRange     = "range"
	ConstraintPrecision = "precision"
	ConstraintSum       = "sum"
)

// ValidationError rejects a soil sample. Constraint names the rule that
// failed; Message is meant for the end user.
type ValidationError struct {
	Constraint string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsDataLoadError reports whether err wraps a *DataLoadError.
func IsDataLoadError(err error) bool {
	var derr *DataLoadError
	return errors.As(err, &derr)
}

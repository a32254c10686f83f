// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidJobName is the sentinel error wrapped by InvalidJobNameError.
	ErrInvalidJobName = errors.New("invalid job name")
	// ErrInvalidAxisName is the sentinel error wrapped by InvalidAxisNameError.
	ErrInvalidAxisName = errors.New("invalid axis name")

	// namePattern is shared by job names, matrix axis names, and step IDs:
	// a leading letter or underscore followed by word characters or hyphens.
	namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
)

type (
	// JobName identifies a job within a workflow (e.g., "build_and_test").
	JobName string

	// AxisName identifies a matrix axis (e.g., "crypto-backend").
	AxisName string

	// StepID identifies a step within a job. Optional; when present it must
	// be unique within the job.
	StepID string

	// InvalidJobNameError is returned when a JobName does not match the
	// required pattern. It wraps ErrInvalidJobName for errors.Is.
	InvalidJobNameError struct {
		Value JobName
	}

	// InvalidAxisNameError is returned when an AxisName does not match the
	// required pattern. It wraps ErrInvalidAxisName for errors.Is.
	InvalidAxisNameError struct {
		Value AxisName
	}
)

// Error implements the error interface.
func (e *InvalidJobNameError) Error() string {
	return fmt.Sprintf("invalid job name %q (must match %s)", e.Value, namePattern)
}

// Unwrap returns ErrInvalidJobName so callers can use errors.Is.
func (e *InvalidJobNameError) Unwrap() error { return ErrInvalidJobName }

// Error implements the error interface.
func (e *InvalidAxisNameError) Error() string {
	return fmt.Sprintf("invalid matrix axis name %q (must match %s)", e.Value, namePattern)
}

// Unwrap returns ErrInvalidAxisName so callers can use errors.Is.
func (e *InvalidAxisNameError) Unwrap() error { return ErrInvalidAxisName }

// IsValid returns whether the JobName matches the required pattern,
// and a list of validation errors if it does not.
func (n JobName) IsValid() (bool, []error) {
	if !namePattern.MatchString(string(n)) {
		return false, []error{&InvalidJobNameError{Value: n}}
	}
	return true, nil
}

// String returns the job name as a plain string.
func (n JobName) String() string { return string(n) }

// IsValid returns whether the AxisName matches the required pattern,
// and a list of validation errors if it does not.
func (n AxisName) IsValid() (bool, []error) {
	if !namePattern.MatchString(string(n)) {
		return false, []error{&InvalidAxisNameError{Value: n}}
	}
	return true, nil
}

// String returns the axis name as a plain string.
func (n AxisName) String() string { return string(n) }

// IsValid returns whether the StepID matches the required pattern. The
// empty ID is valid (IDs are optional).
func (s StepID) IsValid() bool {
	return s == "" || namePattern.MatchString(string(s))
}

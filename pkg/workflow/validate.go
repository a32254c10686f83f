// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"fmt"
	"strings"
)

type (
	// ValidationError represents a single issue found during workflow
	// validation.
	ValidationError struct {
		// Field is the field path where the error occurred
		// (e.g., "jobs.build_and_test.steps[1]").
		Field string
		// Message is the human-readable error message.
		Message string
	}

	// ValidationErrors is a collection of validation errors that implements
	// the error interface, allowing a single validation pass to report
	// every issue at once.
	ValidationErrors []ValidationError
)

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	if len(es) == 1 {
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(es), strings.Join(msgs, "\n  "))
}

// Validate checks the workflow for constraints the CUE schema cannot
// express. It collects ALL errors to give comprehensive feedback instead
// of stopping at the first issue.
func (w *Workflow) Validate() ValidationErrors {
	var errs ValidationErrors

	if !w.On.HasAny() {
		errs = append(errs, ValidationError{
			Field:   "on",
			Message: "at least one trigger (push or pull_request) must be declared",
		})
	}

	if len(w.Jobs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "jobs",
			Message: "at least one job must be defined",
		})
	}

	for _, name := range w.SortedJobNames() {
		errs = append(errs, w.Jobs[name].validate()...)
	}

	return errs
}

func (j *Job) validate() ValidationErrors {
	var errs ValidationErrors
	field := func(suffix string) string {
		return fmt.Sprintf("jobs.%s%s", j.Name, suffix)
	}

	if ok, nameErrs := j.Name.IsValid(); !ok {
		errs = append(errs, ValidationError{Field: "jobs", Message: nameErrs[0].Error()})
	}

	if len(j.Steps) == 0 {
		errs = append(errs, ValidationError{
			Field:   field(".steps"),
			Message: "job must have at least one step",
		})
	}

	seenIDs := make(map[StepID]int)
	for i, step := range j.Steps {
		stepField := field(fmt.Sprintf(".steps[%d]", i))

		switch {
		case step.Uses == "" && step.Run == "":
			errs = append(errs, ValidationError{
				Field:   stepField,
				Message: "step must declare either 'uses' or 'run'",
			})
		case step.Uses != "" && step.Run != "":
			errs = append(errs, ValidationError{
				Field:   stepField,
				Message: "step must not declare both 'uses' and 'run'",
			})
		}

		if step.Run != "" && len(step.With) > 0 {
			errs = append(errs, ValidationError{
				Field:   stepField,
				Message: "'with' is only valid on 'uses' steps",
			})
		}

		if step.ID != "" {
			if !step.ID.IsValid() {
				errs = append(errs, ValidationError{
					Field:   stepField + ".id",
					Message: fmt.Sprintf("invalid step id %q", step.ID),
				})
			} else if first, dup := seenIDs[step.ID]; dup {
				errs = append(errs, ValidationError{
					Field:   stepField + ".id",
					Message: fmt.Sprintf("duplicate step id %q (first used by step %d)", step.ID, first),
				})
			}
			if _, dup := seenIDs[step.ID]; !dup {
				seenIDs[step.ID] = i
			}
		}
	}

	if j.Strategy != nil && j.Strategy.Matrix != nil {
		errs = append(errs, j.Strategy.Matrix.validate(field(".strategy.matrix"))...)
	}

	return errs
}

func (m *Matrix) validate(field string) ValidationErrors {
	var errs ValidationErrors

	if len(m.Axes) == 0 && len(m.Include) == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "matrix must declare at least one axis or include entry",
		})
	}

	for axis, values := range m.Axes {
		seen := make(map[MatrixValue]struct{}, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.%s", field, axis),
					Message: fmt.Sprintf("duplicate matrix value %q", v),
				})
			}
			seen[v] = struct{}{}
		}
	}

	// Exclude entries must reference declared axes only; a typo here would
	// otherwise silently exclude nothing.
	for i, combo := range m.Exclude {
		for axis := range combo {
			if _, ok := m.Axes[axis]; !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.exclude[%d]", field, i),
					Message: fmt.Sprintf("unknown matrix axis %q", axis),
				})
			}
		}
	}

	return errs
}

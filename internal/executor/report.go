// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"time"

	"wrun-cli/internal/plan"
	"wrun-cli/internal/runner"
)

// Cell status constants, from best to worst outcome.
const (
	StatusSuccess  CellStatus = "success"
	StatusFailed   CellStatus = "failed"
	StatusCanceled CellStatus = "canceled"
)

type (
	// CellStatus is the final outcome of one matrix cell.
	CellStatus string

	// StepResult records the outcome of a single step.
	StepResult struct {
		// Step is the rendered step that ran.
		Step *plan.StepPlan
		// ExitCode is the step's exit code. Zero for actions that succeed.
		ExitCode runner.ExitCode
		// Err holds a failure that produced no exit code, such as a spawn
		// error or an unknown action reference.
		Err error
		// Duration is the step's wall-clock time.
		Duration time.Duration
		// Skipped is set for steps that never ran because an earlier step
		// failed.
		Skipped bool
		// Ignored is set when the step failed but declared continue-on-error.
		Ignored bool
	}

	// CellResult records the outcome of one matrix cell.
	CellResult struct {
		// Instance is the job instance the cell ran.
		Instance *plan.JobInstance
		// Status is the cell's final outcome.
		Status CellStatus
		// Steps holds one result per step, in execution order.
		Steps []*StepResult
		// Duration is the cell's wall-clock time.
		Duration time.Duration
	}

	// Report aggregates the outcome of a full plan run.
	Report struct {
		// WorkflowName is the workflow's display name.
		WorkflowName string
		// Event is the simulated event kind that triggered the run.
		Event string
		// Cells holds one result per job instance, in plan order.
		Cells []*CellResult
		// Duration is the run's wall-clock time.
		Duration time.Duration
	}
)

// Failed reports whether the step counts as a failure for the cell. Ignored
// and skipped steps do not.
func (sr *StepResult) Failed() bool {
	if sr.Skipped || sr.Ignored {
		return false
	}
	return sr.Err != nil || !sr.ExitCode.IsSuccess()
}

// Failed reports whether the cell ended in a non-success status.
func (cr *CellResult) Failed() bool {
	return cr.Status != StatusSuccess
}

// Failed reports whether any cell failed or was canceled.
func (r *Report) Failed() bool {
	for _, cell := range r.Cells {
		if cell.Failed() {
			return true
		}
	}
	return false
}

// ExitCode maps the report to a process exit code: the first failing step's
// exit code, or 1 when a cell failed without one, or 0 on success.
func (r *Report) ExitCode() int {
	for _, cell := range r.Cells {
		if !cell.Failed() {
			continue
		}
		for _, step := range cell.Steps {
			if step.Failed() {
				if step.ExitCode != 0 {
					return int(step.ExitCode)
				}
				return 1
			}
		}
		return 1
	}
	return 0
}

// Counts returns how many cells succeeded, failed, and were canceled.
func (r *Report) Counts() (succeeded, failed, canceled int) {
	for _, cell := range r.Cells {
		switch cell.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		case StatusCanceled:
			canceled++
		}
	}
	return succeeded, failed, canceled
}

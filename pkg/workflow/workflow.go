// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"maps"
	"slices"
	"strings"
)

type (
	// Workflow is the root of a parsed workflow file.
	Workflow struct {
		// Name is the optional display name of the workflow.
		Name string `json:"name,omitempty"`

		// On declares the events that trigger this workflow.
		On Triggers `json:"on"`

		// Env is workflow-level environment, applied to every step of
		// every job (lowest precedence of the three env layers).
		Env map[string]string `json:"env,omitempty"`

		// Jobs maps job names to their definitions. Use SortedJobNames for
		// deterministic iteration.
		Jobs map[JobName]*Job `json:"jobs"`

		// FilePath is the path the workflow was loaded from. Set by Parse;
		// not part of the file format.
		FilePath string `json:"-"`
	}

	// Triggers declares the trigger conditions of a workflow. A nil filter
	// means the event kind does not trigger the workflow at all.
	Triggers struct {
		Push        *BranchFilter `json:"push,omitempty"`
		PullRequest *BranchFilter `json:"pull_request,omitempty"`
	}

	// BranchFilter restricts an event kind to a set of branches. Patterns
	// are doublestar globs matched against the full branch name. An empty
	// Branches list matches every branch.
	BranchFilter struct {
		Branches []string `json:"branches,omitempty"`
	}

	// Job is a single job definition: a target label, an optional build
	// matrix, and a sequence of steps.
	Job struct {
		// Name is the job's key in the jobs map. Set by Parse.
		Name JobName `json:"-"`

		// RunsOn is the declared runner label (e.g., "ubuntu-latest"). Local
		// execution treats it as the container image selector for the
		// container runner and ignores it otherwise.
		RunsOn string `json:"runs-on"`

		// Env is job-level environment, overriding workflow env.
		Env map[string]string `json:"env,omitempty"`

		// Defaults carries job-wide step defaults.
		Defaults *Defaults `json:"defaults,omitempty"`

		// Strategy declares the build matrix. Nil means a single implicit
		// cell with no matrix values.
		Strategy *Strategy `json:"strategy,omitempty"`

		// Steps run strictly sequentially within each matrix cell.
		Steps []Step `json:"steps"`
	}

	// Defaults carries job-wide defaults applied to steps that do not
	// override them.
	Defaults struct {
		Run *RunDefaults `json:"run,omitempty"`
	}

	// RunDefaults holds defaults for run steps.
	RunDefaults struct {
		WorkingDirectory string `json:"working-directory,omitempty"`
	}

	// Strategy declares how a job's matrix expands into cells and how the
	// cells are scheduled.
	Strategy struct {
		// RawMatrix is the matrix as decoded from the file: axis lists plus
		// the reserved include/exclude keys. Normalized into Matrix by Parse.
		RawMatrix map[string]any `json:"matrix"`

		// FailFast cancels sibling cells when one cell fails. Nil means the
		// default (true).
		FailFast *bool `json:"fail-fast,omitempty"`

		// MaxParallel bounds concurrent cells. Zero means unbounded (still
		// capped by the runner configuration).
		MaxParallel int `json:"max-parallel,omitempty"`

		// Matrix is the normalized form of RawMatrix. Set by Parse.
		Matrix *Matrix `json:"-"`
	}

	// Step is a single unit of work: either a built-in action reference
	// (uses) or a shell script (run), never both.
	Step struct {
		Name string `json:"name,omitempty"`
		ID   StepID `json:"id,omitempty"`

		// Uses references a built-in action (e.g., "checkout").
		Uses string `json:"uses,omitempty"`

		// With carries inputs for the action referenced by Uses.
		With map[string]string `json:"with,omitempty"`

		// Run is the shell script to execute. Subject to ${{ ... }}
		// interpolation at plan time.
		Run string `json:"run,omitempty"`

		// Env is step-level environment, the highest of the three file env
		// layers.
		Env map[string]string `json:"env,omitempty"`

		WorkingDirectory string `json:"working-directory,omitempty"`
		Shell            string `json:"shell,omitempty"`
		TimeoutMinutes   int    `json:"timeout-minutes,omitempty"`
		ContinueOnError  bool   `json:"continue-on-error,omitempty"`
	}
)

// SortedJobNames returns the workflow's job names in lexicographic order.
// Map iteration order would make plans nondeterministic.
func (w *Workflow) SortedJobNames() []JobName {
	return slices.Sorted(maps.Keys(w.Jobs))
}

// Job returns the named job, or false when absent.
func (w *Workflow) Job(name JobName) (*Job, bool) {
	j, ok := w.Jobs[name]
	return j, ok
}

// HasAny reports whether at least one trigger kind is declared.
func (t *Triggers) HasAny() bool {
	return t.Push != nil || t.PullRequest != nil
}

// DisplayName returns the step's name, falling back to the action reference
// or the first line of the run script.
func (s *Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Uses != "" {
		return s.Uses
	}
	first, _, _ := strings.Cut(s.Run, "\n")
	return first
}

// IsAction reports whether the step references a built-in action.
func (s *Step) IsAction() bool {
	return s.Uses != ""
}

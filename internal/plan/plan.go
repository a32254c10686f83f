// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"wrun-cli/internal/event"
	"wrun-cli/pkg/workflow"
)

// ErrEventNotMatched is returned by Build when the simulated event does not
// trigger the workflow. Callers distinguish it from real failures: for a CI
// runner, "nothing to do" is a normal outcome.
var ErrEventNotMatched = errors.New("event does not trigger this workflow")

type (
	// Options control plan construction.
	Options struct {
		// Event is the simulated CI event.
		Event event.Event

		// Job restricts the plan to a single job. Empty means all matching
		// jobs.
		Job workflow.JobName

		// Workdir overrides the base working directory. Empty means the
		// workflow file's directory.
		Workdir string
	}

	// Plan is a fully rendered execution plan: pure data, safe to print,
	// diff, and test without executing anything.
	Plan struct {
		// WorkflowName is the workflow's display name.
		WorkflowName string `json:"workflow"`
		// FilePath is the workflow file the plan was built from.
		FilePath string `json:"file,omitempty"`
		// Event is the simulated event that matched.
		Event event.Event `json:"event"`
		// Instances are the job instances in deterministic order: job names
		// lexicographic, cells in expansion order.
		Instances []*JobInstance `json:"instances"`
	}

	// JobInstance is one job in one matrix cell.
	JobInstance struct {
		// Job is the job name from the workflow file.
		Job workflow.JobName `json:"job"`
		// CellName identifies the matrix cell ("crypto-backend=mbedtls").
		// Empty for matrix-less jobs.
		CellName string `json:"cell,omitempty"`
		// Cell holds the cell's axis values.
		Cell workflow.Combination `json:"matrix,omitempty"`
		// RunsOn is the declared runner label.
		RunsOn string `json:"runs_on"`
		// FailFast propagates the strategy's fail-fast setting (default true).
		FailFast bool `json:"fail_fast"`
		// MaxParallel bounds concurrent cells of this job (0 = unbounded).
		MaxParallel int `json:"max_parallel,omitempty"`
		// Steps are the rendered steps, executed strictly in order.
		Steps []*StepPlan `json:"steps"`
	}

	// StepPlan is a step with every template rendered and every layer
	// merged: the exact command, env, and working directory the runner
	// will use.
	StepPlan struct {
		// Index is the step's position within the job (0-based).
		Index int `json:"index"`
		// Name is the display name.
		Name string `json:"name"`
		// Action is the built-in action reference for uses steps.
		Action string `json:"action,omitempty"`
		// With carries rendered action inputs.
		With map[string]string `json:"with,omitempty"`
		// Run is the rendered shell script for run steps.
		Run string `json:"run,omitempty"`
		// Env is the merged, rendered environment (workflow < job < step).
		Env map[string]string `json:"env,omitempty"`
		// WorkingDirectory is absolute.
		WorkingDirectory string `json:"working_directory"`
		// Shell optionally overrides the runner's shell choice.
		Shell string `json:"shell,omitempty"`
		// Timeout limits the step's execution (0 = no limit).
		Timeout time.Duration `json:"timeout,omitempty"`
		// ContinueOnError keeps the cell running after this step fails.
		ContinueOnError bool `json:"continue_on_error,omitempty"`
	}
)

// DisplayName renders the instance as "job (cell)" for logs and reports.
func (ji *JobInstance) DisplayName() string {
	if ji.CellName == "" {
		return ji.Job.String()
	}
	return fmt.Sprintf("%s (%s)", ji.Job, ji.CellName)
}

// IsAction reports whether the step invokes a built-in action.
func (sp *StepPlan) IsAction() bool {
	return sp.Action != ""
}

// Build constructs the execution plan for a workflow and a simulated
// event. It returns ErrEventNotMatched when the event does not trigger the
// workflow, and an error for any unresolvable expression.
func Build(w *workflow.Workflow, opts Options) (*Plan, error) {
	if ok, errs := opts.Event.Kind.IsValid(); !ok {
		return nil, errs[0]
	}

	if !event.Matches(w, opts.Event) {
		return nil, fmt.Errorf("%s event on branch %q: %w", opts.Event.Kind, opts.Event.Branch, ErrEventNotMatched)
	}

	baseDir := opts.Workdir
	if baseDir == "" {
		baseDir = filepath.Dir(w.FilePath)
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	p := &Plan{
		WorkflowName: w.Name,
		FilePath:     w.FilePath,
		Event:        opts.Event,
	}

	for _, name := range w.SortedJobNames() {
		if opts.Job != "" && name != opts.Job {
			continue
		}

		job := w.Jobs[name]
		for _, cell := range Expand(job.Strategy) {
			instance, err := buildInstance(w, job, cell, baseDir)
			if err != nil {
				return nil, err
			}
			p.Instances = append(p.Instances, instance)
		}
	}

	if opts.Job != "" && len(p.Instances) == 0 {
		return nil, fmt.Errorf("workflow has no job named %q", opts.Job)
	}

	return p, nil
}

func buildInstance(w *workflow.Workflow, job *workflow.Job, cell Cell, baseDir string) (*JobInstance, error) {
	instance := &JobInstance{
		Job:      job.Name,
		CellName: cell.Name,
		Cell:     cell.Values,
		RunsOn:   job.RunsOn,
		FailFast: true,
	}
	if job.Strategy != nil {
		if job.Strategy.FailFast != nil {
			instance.FailFast = *job.Strategy.FailFast
		}
		instance.MaxParallel = job.Strategy.MaxParallel
	}

	for i, step := range job.Steps {
		sp, err := buildStep(w, job, &step, i, cell, baseDir)
		if err != nil {
			return nil, fmt.Errorf("job %q (%s): step %d (%s): %w",
				job.Name, cell.Name, i, step.DisplayName(), err)
		}
		instance.Steps = append(instance.Steps, sp)
	}

	return instance, nil
}

func buildStep(w *workflow.Workflow, job *workflow.Job, step *workflow.Step, index int, cell Cell, baseDir string) (*StepPlan, error) {
	// Env layers merge lowest to highest: workflow, job, step. Values may
	// themselves reference the matrix context.
	env := make(map[string]string)
	maps.Copy(env, w.Env)
	maps.Copy(env, job.Env)
	maps.Copy(env, step.Env)

	ctx := &Contexts{Matrix: cell.Values, Env: env}

	for key, value := range env {
		rendered, err := Interpolate(value, &Contexts{Matrix: cell.Values, Env: nil})
		if err != nil {
			return nil, fmt.Errorf("env %s: %w", key, err)
		}
		env[key] = rendered
	}

	name, err := Interpolate(step.DisplayName(), ctx)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}

	sp := &StepPlan{
		Index:           index,
		Name:            name,
		Env:             env,
		Shell:           step.Shell,
		ContinueOnError: step.ContinueOnError,
		Timeout:         time.Duration(step.TimeoutMinutes) * time.Minute,
	}

	workdir := step.WorkingDirectory
	if workdir == "" && job.Defaults != nil && job.Defaults.Run != nil {
		workdir = job.Defaults.Run.WorkingDirectory
	}
	if workdir != "" {
		workdir, err = Interpolate(workdir, ctx)
		if err != nil {
			return nil, fmt.Errorf("working-directory: %w", err)
		}
	}
	if filepath.IsAbs(workdir) {
		sp.WorkingDirectory = filepath.Clean(workdir)
	} else {
		sp.WorkingDirectory = filepath.Join(baseDir, workdir)
	}

	if step.IsAction() {
		sp.Action = step.Uses
		if len(step.With) > 0 {
			sp.With = make(map[string]string, len(step.With))
			for key, value := range step.With {
				rendered, err := Interpolate(value, ctx)
				if err != nil {
					return nil, fmt.Errorf("with.%s: %w", key, err)
				}
				sp.With[key] = rendered
			}
		}
		return sp, nil
	}

	run, err := Interpolate(step.Run, ctx)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	sp.Run = run

	return sp, nil
}

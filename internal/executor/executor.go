// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"wrun-cli/internal/action"
	"wrun-cli/internal/plan"
	"wrun-cli/internal/runner"
)

// ErrRunFailed is returned by Run when at least one cell did not succeed.
// The Report carries the per-cell detail; the error exists so callers on the
// happy path can treat a red run like any other failure.
var ErrRunFailed = errors.New("workflow run failed")

type (
	// Options configure an Executor.
	Options struct {
		// Runners executes run steps.
		Runners *runner.Registry
		// Actions executes uses steps.
		Actions *action.Registry
		// RunnerKind selects the backend for run steps.
		RunnerKind runner.Kind
		// MaxParallel bounds concurrently running cells. Zero means one cell
		// per CPU.
		MaxParallel int
		// NoFailFast disables fail-fast even when the job strategy asks for
		// it.
		NoFailFast bool
		// EnvFiles are dotenv files applied to every step.
		EnvFiles []string
		// ExtraEnv holds per-invocation env overrides for every step.
		ExtraEnv map[string]string
		// Stdout receives step output. Defaults to os.Stdout.
		Stdout io.Writer
		// Logger receives progress logging. Defaults to a stderr logger.
		Logger *log.Logger
	}

	// Executor runs plans.
	Executor struct {
		opts Options
	}
)

// New creates an executor, filling unset options with defaults.
func New(opts Options) *Executor {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "wrun",
		})
	}
	if opts.RunnerKind == "" {
		opts.RunnerKind = runner.KindNative
	}
	return &Executor{opts: opts}
}

// Run executes every cell of the plan and returns the aggregated report.
// The report is non-nil even on failure; the error is ErrRunFailed when any
// cell did not succeed, or a context error when the run was canceled from
// outside.
func (e *Executor) Run(ctx context.Context, p *plan.Plan) (*Report, error) {
	start := time.Now()

	report := &Report{
		WorkflowName: p.WorkflowName,
		Event:        p.Event.Kind.String(),
		Cells:        make([]*CellResult, len(p.Instances)),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := new(errgroup.Group)
	g.SetLimit(e.parallelBound(p))

	// Step output is buffered per cell and flushed whole, so parallel cells
	// never interleave lines.
	var outputMu sync.Mutex

	for i, instance := range p.Instances {
		g.Go(func() error {
			result := e.runCell(runCtx, p, instance, &outputMu)
			report.Cells[i] = result

			if result.Failed() && instance.FailFast && !e.opts.NoFailFast {
				cancel()
			}
			return nil
		})
	}

	// Goroutines report through the Cells slice, never through errors.
	_ = g.Wait()

	report.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if report.Failed() {
		return report, ErrRunFailed
	}
	return report, nil
}

// parallelBound computes the cell concurrency limit: the configured bound,
// further clamped by any max-parallel a job strategy declares.
func (e *Executor) parallelBound(p *plan.Plan) int {
	bound := e.opts.MaxParallel
	if bound <= 0 {
		bound = runtime.NumCPU()
	}
	for _, instance := range p.Instances {
		if instance.MaxParallel > 0 && instance.MaxParallel < bound {
			bound = instance.MaxParallel
		}
	}
	return bound
}

func (e *Executor) runCell(ctx context.Context, p *plan.Plan, instance *plan.JobInstance, outputMu *sync.Mutex) *CellResult {
	start := time.Now()
	logger := e.opts.Logger.WithPrefix(instance.DisplayName())

	result := &CellResult{
		Instance: instance,
		Status:   StatusSuccess,
		Steps:    make([]*StepResult, 0, len(instance.Steps)),
	}

	var output bytes.Buffer
	defer func() {
		result.Duration = time.Since(start)
		outputMu.Lock()
		defer outputMu.Unlock()
		if output.Len() > 0 {
			_, _ = e.opts.Stdout.Write(output.Bytes())
		}
	}()

	if err := ctx.Err(); err != nil {
		logger.Warn("canceled before start")
		result.Status = StatusCanceled
		for _, step := range instance.Steps {
			result.Steps = append(result.Steps, &StepResult{Step: step, Skipped: true})
		}
		return result
	}

	logger.Info("starting", "steps", len(instance.Steps))

	skipRemaining := false
	for _, step := range instance.Steps {
		if skipRemaining {
			result.Steps = append(result.Steps, &StepResult{Step: step, Skipped: true})
			continue
		}
		if ctx.Err() != nil {
			result.Status = StatusCanceled
			result.Steps = append(result.Steps, &StepResult{Step: step, Skipped: true})
			skipRemaining = true
			continue
		}

		logger.Info("step", "name", step.Name)
		sr := e.runStep(ctx, p, instance, step, &output)
		result.Steps = append(result.Steps, sr)

		if sr.Err != nil || !sr.ExitCode.IsSuccess() {
			if step.ContinueOnError {
				sr.Ignored = true
				logger.Warn("step failed, continuing", "name", step.Name, "exit_code", sr.ExitCode)
				continue
			}
			if ctx.Err() != nil {
				result.Status = StatusCanceled
			} else {
				result.Status = StatusFailed
			}
			logger.Error("step failed", "name", step.Name, "exit_code", sr.ExitCode, "error", sr.Err)
			skipRemaining = true
		}
	}

	switch result.Status {
	case StatusSuccess:
		logger.Info("succeeded", "duration", result.Duration.Round(time.Millisecond))
	case StatusCanceled:
		logger.Warn("canceled")
	}

	return result
}

func (e *Executor) runStep(ctx context.Context, p *plan.Plan, instance *plan.JobInstance, step *plan.StepPlan, output io.Writer) *StepResult {
	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	start := time.Now()

	if step.IsAction() {
		err := e.runAction(stepCtx, step, output)
		sr := &StepResult{Step: step, Duration: time.Since(start)}
		if err != nil {
			sr.Err = err
			sr.ExitCode = 1
		}
		return sr
	}

	sc := &runner.StepContext{
		Context:      stepCtx,
		Step:         step,
		Instance:     instance,
		WorkflowName: p.WorkflowName,
		EventName:    p.Event.Kind.String(),
		Stdout:       output,
		Stderr:       output,
		EnvFiles:     e.opts.EnvFiles,
		ExtraEnv:     e.opts.ExtraEnv,
	}

	res := e.opts.Runners.Execute(e.opts.RunnerKind, sc)

	return &StepResult{
		Step:     step,
		ExitCode: res.ExitCode,
		Err:      res.Error,
		Duration: time.Since(start),
	}
}

func (e *Executor) runAction(ctx context.Context, step *plan.StepPlan, output io.Writer) error {
	a, err := e.opts.Actions.Get(step.Action)
	if err != nil {
		return err
	}

	if err := a.Run(&action.Context{
		Context: ctx,
		Step:    step,
		Workdir: step.WorkingDirectory,
		Stdout:  output,
	}); err != nil {
		return fmt.Errorf("action %s: %w", step.Action, err)
	}
	return nil
}

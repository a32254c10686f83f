// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"wrun-cli/internal/action"
	"wrun-cli/internal/event"
	"wrun-cli/internal/plan"
	"wrun-cli/internal/runner"
	"wrun-cli/pkg/workflow"
)

func testExecutor(t *testing.T, opts Options) *Executor {
	t.Helper()

	if opts.Runners == nil {
		opts.Runners = runner.NewRegistry()
		opts.Runners.Register(runner.KindVirtual, runner.NewVirtualRunner())
	}
	if opts.Actions == nil {
		opts.Actions = action.NewRegistry()
	}
	if opts.RunnerKind == "" {
		opts.RunnerKind = runner.KindVirtual
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return New(opts)
}

func runStep(t *testing.T, name, script string) *plan.StepPlan {
	t.Helper()

	return &plan.StepPlan{
		Name:             name,
		Run:              script,
		Env:              map[string]string{"CARGO_TERM_COLOR": "always"},
		WorkingDirectory: t.TempDir(),
	}
}

func testPlan(instances ...*plan.JobInstance) *plan.Plan {
	return &plan.Plan{
		WorkflowName: "Test",
		Event:        event.Event{Kind: event.KindPush, Branch: "main"},
		Instances:    instances,
	}
}

func cell(job, name string, failFast bool, steps ...*plan.StepPlan) *plan.JobInstance {
	for i, step := range steps {
		step.Index = i
	}
	return &plan.JobInstance{
		Job:      workflow.JobName(job),
		CellName: name,
		RunsOn:   "ubuntu-latest",
		FailFast: failFast,
		Steps:    steps,
	}
}

func TestRunAllCellsSucceed(t *testing.T) {
	p := testPlan(
		cell("build_and_test", "crypto-backend=rustcrypto", true, runStep(t, "build", "true")),
		cell("build_and_test", "crypto-backend=mbedtls", true, runStep(t, "build", "true")),
		cell("build_and_test", "crypto-backend=openssl", true, runStep(t, "build", "true")),
	)

	report, err := testExecutor(t, Options{}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if report.Failed() {
		t.Error("report should not be failed")
	}
	if report.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", report.ExitCode())
	}
	succeeded, failed, canceled := report.Counts()
	if succeeded != 3 || failed != 0 || canceled != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", succeeded, failed, canceled)
	}
}

func TestRunStepFailureSkipsRemainingSteps(t *testing.T) {
	p := testPlan(cell("build_and_test", "", true,
		runStep(t, "build", "true"),
		runStep(t, "test", "exit 7"),
		runStep(t, "never", "true"),
	))

	report, err := testExecutor(t, Options{}).Run(context.Background(), p)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}

	if report.ExitCode() != 7 {
		t.Errorf("exit code = %d, want 7", report.ExitCode())
	}

	result := report.Cells[0]
	if result.Status != StatusFailed {
		t.Errorf("status = %q", result.Status)
	}
	if result.Steps[0].Failed() {
		t.Error("first step should have succeeded")
	}
	if !result.Steps[1].Failed() || result.Steps[1].ExitCode != 7 {
		t.Errorf("second step result = %+v", result.Steps[1])
	}
	if !result.Steps[2].Skipped {
		t.Error("third step should have been skipped")
	}
}

func TestRunContinueOnError(t *testing.T) {
	flaky := runStep(t, "flaky", "exit 1")
	flaky.ContinueOnError = true

	p := testPlan(cell("build_and_test", "", true,
		flaky,
		runStep(t, "after", "true"),
	))

	report, err := testExecutor(t, Options{}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	result := report.Cells[0]
	if result.Status != StatusSuccess {
		t.Errorf("status = %q, want success", result.Status)
	}
	if !result.Steps[0].Ignored {
		t.Error("flaky step should be marked ignored")
	}
	if result.Steps[0].Failed() {
		t.Error("ignored steps do not count as failures")
	}
	if result.Steps[1].Skipped {
		t.Error("step after an ignored failure must still run")
	}
}

func TestRunFailFastCancelsPendingCells(t *testing.T) {
	p := testPlan(
		cell("build_and_test", "crypto-backend=rustcrypto", true, runStep(t, "build", "exit 3")),
		cell("build_and_test", "crypto-backend=mbedtls", true, runStep(t, "build", "true")),
	)

	// MaxParallel 1 serializes the cells so the second one reliably sees the
	// cancellation triggered by the first.
	report, err := testExecutor(t, Options{MaxParallel: 1}).Run(context.Background(), p)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}

	if report.Cells[0].Status != StatusFailed {
		t.Errorf("first cell status = %q", report.Cells[0].Status)
	}
	if report.Cells[1].Status != StatusCanceled {
		t.Errorf("second cell status = %q, want canceled", report.Cells[1].Status)
	}
	if !report.Cells[1].Steps[0].Skipped {
		t.Error("canceled cell steps should be skipped")
	}
}

func TestRunNoFailFastRunsEveryCell(t *testing.T) {
	p := testPlan(
		cell("build_and_test", "crypto-backend=rustcrypto", true, runStep(t, "build", "exit 3")),
		cell("build_and_test", "crypto-backend=mbedtls", true, runStep(t, "build", "true")),
	)

	report, err := testExecutor(t, Options{MaxParallel: 1, NoFailFast: true}).Run(context.Background(), p)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}

	if report.Cells[0].Status != StatusFailed {
		t.Errorf("first cell status = %q", report.Cells[0].Status)
	}
	if report.Cells[1].Status != StatusSuccess {
		t.Errorf("second cell status = %q, want success", report.Cells[1].Status)
	}
}

func TestRunFailFastDisabledByStrategy(t *testing.T) {
	p := testPlan(
		cell("build_and_test", "crypto-backend=rustcrypto", false, runStep(t, "build", "exit 3")),
		cell("build_and_test", "crypto-backend=mbedtls", false, runStep(t, "build", "true")),
	)

	report, _ := testExecutor(t, Options{MaxParallel: 1}).Run(context.Background(), p)

	if report.Cells[1].Status != StatusSuccess {
		t.Errorf("second cell status = %q, want success when fail-fast is off", report.Cells[1].Status)
	}
}

func TestRunActionStep(t *testing.T) {
	workdir := t.TempDir()
	checkout := &plan.StepPlan{
		Name:             "checkout",
		Action:           "checkout",
		WorkingDirectory: workdir,
	}

	p := testPlan(cell("build_and_test", "", true, checkout, runStep(t, "build", "true")))

	report, err := testExecutor(t, Options{}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Cells[0].Steps[0].Failed() {
		t.Errorf("checkout step failed: %v", report.Cells[0].Steps[0].Err)
	}
}

func TestRunUnknownActionFailsCell(t *testing.T) {
	p := testPlan(cell("build_and_test", "", true, &plan.StepPlan{
		Name:             "mystery",
		Action:           "upload-artifact",
		WorkingDirectory: t.TempDir(),
	}))

	report, err := testExecutor(t, Options{}).Run(context.Background(), p)
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if !errors.Is(report.Cells[0].Steps[0].Err, action.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", report.Cells[0].Steps[0].Err)
	}
}

func TestRunStepOutputReachesStdout(t *testing.T) {
	var out bytes.Buffer
	p := testPlan(cell("build_and_test", "", true, runStep(t, "hello", "echo hello from the cell")))

	_, err := testExecutor(t, Options{Stdout: &out}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out.String(), "hello from the cell") {
		t.Errorf("stdout missing step output: %q", out.String())
	}
}

func TestRunExtraEnvWinsOverStepEnv(t *testing.T) {
	var out bytes.Buffer
	p := testPlan(cell("build_and_test", "", true, runStep(t, "env", "echo color=$CARGO_TERM_COLOR")))

	_, err := testExecutor(t, Options{
		Stdout:   &out,
		ExtraEnv: map[string]string{"CARGO_TERM_COLOR": "never"},
	}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out.String(), "color=never") {
		t.Errorf("override not applied: %q", out.String())
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := testPlan(cell("build_and_test", "", true, runStep(t, "build", "true")))

	report, err := testExecutor(t, Options{}).Run(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Cells[0].Status != StatusCanceled {
		t.Errorf("cell status = %q, want canceled", report.Cells[0].Status)
	}
}

func TestParallelBoundClampedByStrategy(t *testing.T) {
	instance := cell("build_and_test", "", true)
	instance.MaxParallel = 2

	e := testExecutor(t, Options{MaxParallel: 8})
	if got := e.parallelBound(testPlan(instance)); got != 2 {
		t.Errorf("bound = %d, want 2", got)
	}

	e = testExecutor(t, Options{MaxParallel: 1})
	if got := e.parallelBound(testPlan(instance)); got != 1 {
		t.Errorf("bound = %d, want 1", got)
	}
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wrun-cli/internal/action"
	"wrun-cli/internal/config"
	"wrun-cli/internal/container"
	"wrun-cli/internal/event"
	"wrun-cli/internal/executor"
	"wrun-cli/internal/plan"
	"wrun-cli/internal/runner"
	"wrun-cli/internal/watch"
	"wrun-cli/pkg/workflow"
)

var (
	runEvent       string
	runRef         string
	runJob         string
	runRunner      string
	runEnv         []string
	runEnvFiles    []string
	runWorkdir     string
	runMaxParallel int
	runNoFailFast  bool
	runDryRun      bool
	runWatch       bool

	runCmd = &cobra.Command{
		Use:   "run [workflow]",
		Short: "Execute a workflow's matrix cells",
		Long: `Execute a workflow: simulate a trigger event, expand the build matrix,
and run every matching job instance.

The workflow file defaults to .ci/workflow.yml when no path is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), args)
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runEvent, "event", "push", "event to simulate (push or pull_request)")
	runCmd.Flags().StringVar(&runRef, "ref", "main", "branch the simulated event targets")
	runCmd.Flags().StringVar(&runJob, "job", "", "run only the named job")
	runCmd.Flags().StringVar(&runRunner, "runner", "", "runner backend: native, virtual, or container (default from config)")
	runCmd.Flags().StringArrayVar(&runEnv, "env", nil, "extra environment variables (KEY=VALUE, repeatable)")
	runCmd.Flags().StringArrayVar(&runEnvFiles, "env-file", nil, "dotenv files applied to every step (repeatable, suffix '?' for optional)")
	runCmd.Flags().StringVar(&runWorkdir, "workdir", "", "working directory for steps (default: the workflow file's directory)")
	runCmd.Flags().IntVar(&runMaxParallel, "max-parallel", 0, "max concurrently running cells (default from config, 0 = one per CPU)")
	runCmd.Flags().BoolVar(&runNoFailFast, "no-fail-fast", false, "keep running cells after one fails")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the plan without executing anything")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run the workflow when workspace files change")
}

func runWorkflow(ctx context.Context, args []string) error {
	path, err := resolveWorkflowPath(args)
	if err != nil {
		return err
	}

	execute := func(ctx context.Context) error {
		p, err := buildPlan(path)
		if err != nil {
			return err
		}
		if p == nil {
			// The simulated event does not trigger the workflow.
			return nil
		}

		if runDryRun {
			out, err := p.Render(plan.FormatText)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		}

		return executePlan(ctx, p)
	}

	if runWatch {
		return runWithWatch(ctx, path, execute)
	}
	return execute(ctx)
}

// buildPlan parses the workflow and renders the execution plan for the
// simulated event.
func buildPlan(path string) (*plan.Plan, error) {
	w, err := workflow.Parse(path)
	if err != nil {
		return nil, err
	}

	kind, err := event.ParseKind(runEvent)
	if err != nil {
		return nil, err
	}

	p, err := plan.Build(w, plan.Options{
		Event:   event.Event{Kind: kind, Branch: runRef},
		Job:     workflow.JobName(runJob),
		Workdir: runWorkdir,
	})
	if err != nil {
		if errors.Is(err, plan.ErrEventNotMatched) {
			fmt.Println(WarningStyle.Render("Nothing to do: ") + err.Error())
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func executePlan(ctx context.Context, p *plan.Plan) error {
	extraEnv, err := parseEnvFlags(runEnv)
	if err != nil {
		return err
	}

	kind, err := resolveRunnerKind(cfg)
	if err != nil {
		return err
	}

	build := runner.BuildRegistry(runner.BuildRegistryOptions{
		ContainerEngine: container.EngineType(cfg.ContainerEngine),
		ContainerImage:  cfg.Container.DefaultImage,
	})
	for _, diag := range build.Diagnostics {
		if verbose {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+diag.Message)
		}
	}
	if kind == runner.KindContainer && build.ContainerInitErr != nil {
		return fmt.Errorf("container runner unavailable: %w", build.ContainerInitErr)
	}

	maxParallel := runMaxParallel
	if maxParallel == 0 {
		maxParallel = cfg.MaxParallel
	}

	exec := executor.New(executor.Options{
		Runners:     build.Registry,
		Actions:     action.NewRegistry(),
		RunnerKind:  kind,
		MaxParallel: maxParallel,
		NoFailFast:  runNoFailFast,
		EnvFiles:    runEnvFiles,
		ExtraEnv:    extraEnv,
	})

	report, err := exec.Run(ctx, p)
	printRunSummary(report)

	if err != nil {
		if errors.Is(err, executor.ErrRunFailed) {
			return &ExitError{Code: report.ExitCode(), Err: err}
		}
		return err
	}
	return nil
}

// runWithWatch performs an initial run and then re-runs on workspace
// changes until the context is canceled. Run failures do not stop the
// watch loop.
func runWithWatch(ctx context.Context, workflowPath string, execute func(context.Context) error) error {
	reportFailure := func(err error) {
		if err != nil && !errors.As(err, new(*ExitError)) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		}
	}

	reportFailure(execute(ctx))

	workdir := runWorkdir
	if workdir == "" {
		workdir = "."
	}

	w, err := watch.New(watch.Options{
		Workdir:     workdir,
		Debounce:    time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		ClearScreen: true,
		OnTrigger: func(ctx context.Context, changed []string) error {
			fmt.Println(SubtitleStyle.Render(fmt.Sprintf("%d file(s) changed, re-running %s", len(changed), workflowPath)))
			reportFailure(execute(ctx))
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(SubtitleStyle.Render("Watching for changes... (Ctrl+C to stop)"))
	return w.Run(ctx)
}

// resolveRunnerKind picks the runner backend: the --runner flag wins over the
// configured default.
func resolveRunnerKind(cfg *config.Config) (runner.Kind, error) {
	value := runRunner
	if value == "" {
		value = string(cfg.DefaultRunner)
	}
	return runner.ParseKind(value)
}

// parseEnvFlags parses repeated KEY=VALUE flags into a map.
func parseEnvFlags(entries []string) (map[string]string, error) {
	env := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env entry %q (expected KEY=VALUE)", entry)
		}
		env[key] = value
	}
	return env, nil
}

func printRunSummary(report *executor.Report) {
	if report == nil {
		return
	}

	succeeded, failed, canceled := report.Counts()

	fmt.Println()
	fmt.Println(TitleStyle.Render(report.WorkflowName) +
		SubtitleStyle.Render(fmt.Sprintf("  (%s, %s)", report.Event, report.Duration.Round(time.Millisecond))))

	for _, cell := range report.Cells {
		if cell == nil {
			continue
		}
		label := cell.Instance.DisplayName()
		switch cell.Status {
		case executor.StatusSuccess:
			fmt.Println("  " + SuccessStyle.Render("✓ ") + label)
		case executor.StatusFailed:
			fmt.Println("  " + ErrorStyle.Render("✗ ") + label)
			for _, step := range cell.Steps {
				if step.Failed() {
					fmt.Printf("      %s exited with code %d\n", CmdStyle.Render(step.Step.Name), step.ExitCode)
					break
				}
			}
		case executor.StatusCanceled:
			fmt.Println("  " + WarningStyle.Render("- ") + label + SubtitleStyle.Render(" (canceled)"))
		}
	}

	summary := fmt.Sprintf("%d succeeded, %d failed, %d canceled", succeeded, failed, canceled)
	if failed > 0 || canceled > 0 {
		fmt.Println(ErrorStyle.Render(summary))
	} else {
		fmt.Println(SuccessStyle.Render(summary))
	}
}

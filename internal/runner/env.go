// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"maps"
	"os"
	"strings"
)

// Built-in environment variable names exported to every step.
const (
	// EnvVarWorkflow carries the workflow's display name.
	EnvVarWorkflow = "WRUN_WORKFLOW"
	// EnvVarJob carries the job name.
	EnvVarJob = "WRUN_JOB"
	// EnvVarCell carries the matrix cell name (empty for matrix-less jobs).
	EnvVarCell = "WRUN_CELL"
	// EnvVarEvent carries the triggering event kind.
	EnvVarEvent = "WRUN_EVENT"
	// EnvVarStep carries the step's display name.
	EnvVarStep = "WRUN_STEP"
)

// BuildEnv constructs the full environment for a step, layered lowest to
// highest priority:
//
//  1. Host environment, with stale WRUN_* vars stripped (inheritHost only)
//  2. The step's rendered env (workflow < job < step, merged at plan time)
//  3. Built-in WRUN_* variables for the current step
//  4. --env-file dotenv files, in flag order
//  5. --env overrides
//
// Container runners call this with inheritHost=false: the host environment
// has no business leaking into an isolated container.
func BuildEnv(ctx *StepContext, inheritHost bool) (map[string]string, error) {
	env := make(map[string]string)

	if inheritHost {
		for _, entry := range FilterBuiltinEnvVars(os.Environ()) {
			if key, value, ok := strings.Cut(entry, "="); ok {
				env[key] = value
			}
		}
	}

	maps.Copy(env, ctx.Step.Env)

	env[EnvVarWorkflow] = ctx.WorkflowName
	env[EnvVarJob] = ctx.Instance.Job.String()
	env[EnvVarCell] = ctx.Instance.CellName
	env[EnvVarEvent] = ctx.EventName
	env[EnvVarStep] = ctx.Step.Name

	for _, path := range ctx.EnvFiles {
		if err := LoadEnvFile(env, path, ctx.Step.WorkingDirectory); err != nil {
			return nil, err
		}
	}

	maps.Copy(env, ctx.ExtraEnv)

	return env, nil
}

// EnvToSlice converts an environment map to "KEY=VALUE" entries.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}

// FilterBuiltinEnvVars strips WRUN_* variables from an environment slice.
// Without this, a step that invokes wrun recursively would see the outer
// run's job and cell names instead of its own.
func FilterBuiltinEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if ok && strings.HasPrefix(name, "WRUN_") {
			continue
		}
		result = append(result, entry)
	}
	return result
}

// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a known failure class with a dedicated help page.
type Id int

const (
	WorkflowNotFoundId Id = iota + 1
	WorkflowParseErrorId
	EventNotMatchedId
	RunnerNotAvailableId
	ContainerEngineNotFoundId
	ShellNotFoundId
	StepFailedId
	ConfigLoadFailedId
	UnknownActionId
)

type (
	// MarkdownMsg is the markdown body of a help page.
	MarkdownMsg string

	// HttpLink is a documentation or external reference URL.
	HttpLink string

	// Issue pairs a failure class with a rendered help page shown by
	// `wrun explain` and verbose error output.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the help page as styled terminal output.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	workflowNotFoundIssue = &Issue{
		id: WorkflowNotFoundId,
		mdMsg: `
# No workflow file found!

We searched for a workflow file but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given on the command line
2. ./.ci/workflow.yml
3. Any *.yml / *.yaml file under ./.ci/

## Things you can try:
- Point wrun at the file explicitly:
~~~
$ wrun run path/to/workflow.yml
~~~

- Or create one:
~~~yaml
name: Test

on:
  push:
    branches: [main]

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: checkout
      - name: Build
        run: cargo build --workspace
~~~`,
	}

	workflowParseErrorIssue = &Issue{
		id: WorkflowParseErrorId,
		mdMsg: `
# Failed to parse workflow file!

Your workflow contains invalid YAML or violates the workflow schema.

## Common issues:
- Invalid YAML syntax (bad indentation, unclosed brackets)
- A step with both 'uses' and 'run', or neither
- A matrix axis with duplicate values
- Unknown trigger kinds (only 'push' and 'pull_request' are supported)

## Things you can try:
- Check the error message above for the exact field path
- Validate without running:
~~~
$ wrun validate workflow.yml
~~~`,
	}

	eventNotMatchedIssue = &Issue{
		id: EventNotMatchedId,
		mdMsg: `
# Event does not trigger this workflow!

The event you simulated does not match any of the workflow's triggers.

## Things you can try:
- List what the workflow triggers on:
~~~
$ wrun list workflow.yml
~~~

- Simulate a matching event, e.g.:
~~~
$ wrun run --event push --ref main
~~~

- Check the 'on:' section branch filters; glob patterns like
  'releases/*' must match the full branch name.`,
	}

	runnerNotAvailableIssue = &Issue{
		id: RunnerNotAvailableId,
		mdMsg: `
# Step runner not available!

The selected step runner cannot run on this system.

## Things you can try:
- Use the built-in portable shell:
~~~
$ wrun run --runner virtual
~~~

- For the container runner, verify docker or podman is installed
- Set a default in your config file:
~~~cue
default_runner: "virtual"
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

Neither podman nor docker was found on your PATH.

## Things you can try:
- Install podman (preferred) or docker
- Pin the engine in your config file:
~~~cue
container_engine: "docker"
~~~

- Or avoid containers entirely:
~~~
$ wrun run --runner native
~~~`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# No shell found!

Could not find a suitable shell for the 'native' runner.

## Shells we look for:
- Linux/macOS: $SHELL, bash, sh
- Windows: pwsh, powershell, cmd

## Things you can try:
- Install bash or another POSIX shell
- Set the SHELL environment variable
- Use the 'virtual' runner instead (built-in shell):
~~~
$ wrun run --runner virtual
~~~`,
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A step failed!

One or more matrix cells reported a non-zero step exit code. Cells run
independently; the per-cell report above shows exactly which combination
failed.

## Things you can try:
- Re-run a single cell by pinning the axis value in the workflow
- Inspect the rendered commands without executing:
~~~
$ wrun plan workflow.yml
~~~

- Mark non-critical steps with 'continue-on-error: true'`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file exists but could not be parsed or validated.

## Things you can try:
- Show the resolved configuration:
~~~
$ wrun config show
~~~

- Recreate the default config:
~~~
$ wrun config init
~~~

- Check the CUE syntax of ~/.config/wrun/config.cue`,
	}

	unknownActionIssue = &Issue{
		id: UnknownActionId,
		mdMsg: `
# Unknown built-in action!

A step references a 'uses:' action that wrun does not provide.

## Built-in actions:
- checkout — resolve the workspace directory for subsequent steps

## Things you can try:
- Replace the step with an explicit 'run:' script
- Check for typos in the action name`,
	}

	issues = map[Id]*Issue{
		workflowNotFoundIssue.Id():        workflowNotFoundIssue,
		workflowParseErrorIssue.Id():      workflowParseErrorIssue,
		eventNotMatchedIssue.Id():         eventNotMatchedIssue,
		runnerNotAvailableIssue.Id():      runnerNotAvailableIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		shellNotFoundIssue.Id():           shellNotFoundIssue,
		stepFailedIssue.Id():              stepFailedIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		unknownActionIssue.Id():           unknownActionIssue,
	}
)

// Values returns all registered issues in unspecified order.
func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the issue registered for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

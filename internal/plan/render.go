// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Format identifies a plan output format.
type Format string

// Supported plan output formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat parses a string into a Format.
func ParseFormat(value string) (Format, error) {
	switch f := Format(value); f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unknown plan format %q (supported: text, json, yaml, markdown)", value)
	}
}

// Render serializes the plan in the requested format.
func (p *Plan) Render(format Format) (string, error) {
	switch format {
	case FormatText:
		return p.renderText(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal plan: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to marshal plan: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return p.renderMarkdown(), nil
	default:
		return "", fmt.Errorf("unknown plan format %q", format)
	}
}

func (p *Plan) renderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "workflow %q on %s", p.WorkflowName, p.Event.Kind)
	if p.Event.Branch != "" {
		fmt.Fprintf(&b, " (branch %s)", p.Event.Branch)
	}
	fmt.Fprintf(&b, ": %d instance(s)\n", len(p.Instances))

	for _, instance := range p.Instances {
		fmt.Fprintf(&b, "\n%s  [runs-on: %s]\n", instance.DisplayName(), instance.RunsOn)
		for _, step := range instance.Steps {
			if step.IsAction() {
				fmt.Fprintf(&b, "  %d. %s  (action: %s)\n", step.Index+1, step.Name, step.Action)
				continue
			}
			fmt.Fprintf(&b, "  %d. %s\n", step.Index+1, step.Name)
			fmt.Fprintf(&b, "     $ %s\n", strings.ReplaceAll(step.Run, "\n", "\n     $ "))
		}
	}

	return b.String()
}

func (p *Plan) renderMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Plan: %s\n\n", p.WorkflowName)
	fmt.Fprintf(&b, "Event: `%s`", p.Event.Kind)
	if p.Event.Branch != "" {
		fmt.Fprintf(&b, " on branch `%s`", p.Event.Branch)
	}
	fmt.Fprintf(&b, " — %d instance(s)\n", len(p.Instances))

	for _, instance := range p.Instances {
		fmt.Fprintf(&b, "\n## %s\n\n", instance.DisplayName())
		fmt.Fprintf(&b, "Runs on: `%s`\n", instance.RunsOn)

		if len(instance.Cell) > 0 {
			fmt.Fprintf(&b, "\n| Axis | Value |\n|---|---|\n")
			axes := maps.Keys(instance.Cell)
			slices.Sort(axes)
			for _, axis := range axes {
				fmt.Fprintf(&b, "| %s | %s |\n", axis, instance.Cell[axis])
			}
		}

		for _, step := range instance.Steps {
			fmt.Fprintf(&b, "\n### %d. %s\n\n", step.Index+1, step.Name)
			if step.IsAction() {
				fmt.Fprintf(&b, "Built-in action: `%s`\n", step.Action)
				continue
			}
			fmt.Fprintf(&b, "```sh\n%s\n```\n", step.Run)
		}
	}

	return b.String()
}

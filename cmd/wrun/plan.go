// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wrun-cli/internal/plan"
)

var (
	planFormat string

	planCmd = &cobra.Command{
		Use:   "plan [workflow]",
		Short: "Show the expanded execution plan",
		Long: `Show what a run would execute: the matrix cells the simulated event
expands to, with every expression rendered to its final value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPlan(args)
		},
	}
)

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "text", "output format: text, json, yaml, or markdown")
	planCmd.Flags().StringVar(&runEvent, "event", "push", "event to simulate (push or pull_request)")
	planCmd.Flags().StringVar(&runRef, "ref", "main", "branch the simulated event targets")
	planCmd.Flags().StringVar(&runJob, "job", "", "plan only the named job")
}

func showPlan(args []string) error {
	path, err := resolveWorkflowPath(args)
	if err != nil {
		return err
	}

	format, err := plan.ParseFormat(planFormat)
	if err != nil {
		return err
	}

	p, err := buildPlan(path)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	out, err := p.Render(format)
	if err != nil {
		return err
	}

	if format == plan.FormatMarkdown && term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, err := renderMarkdownForTerminal(out)
		if err == nil {
			out = rendered
		}
	}

	fmt.Print(out)
	return nil
}

// renderMarkdownForTerminal pretty-prints markdown with glamour.
func renderMarkdownForTerminal(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(markdown)
}

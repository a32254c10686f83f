// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wrun-cli/internal/plan"
	"wrun-cli/pkg/workflow"
)

var listCmd = &cobra.Command{
	Use:   "list [workflow]",
	Short: "List a workflow's jobs and matrix cells",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listJobs(args)
	},
}

func listJobs(args []string) error {
	path, err := resolveWorkflowPath(args)
	if err != nil {
		return err
	}

	w, err := workflow.Parse(path)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(w.Name) + SubtitleStyle.Render("  ("+path+")"))

	for _, name := range w.SortedJobNames() {
		job := w.Jobs[name]
		cells := plan.Expand(job.Strategy)

		fmt.Printf("  %s  %s\n",
			CmdStyle.Render(name.String()),
			SubtitleStyle.Render(fmt.Sprintf("[runs-on: %s, %d cell(s), %d step(s)]",
				job.RunsOn, len(cells), len(job.Steps))))

		for _, cell := range cells {
			if cell.Name == "" {
				continue
			}
			fmt.Printf("    - %s\n", cell.Name)
		}
	}

	return nil
}

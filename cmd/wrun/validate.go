// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wrun-cli/pkg/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workflow]",
	Short: "Validate a workflow file without running it",
	Long: `Parse a workflow file, check it against the schema, and run the
structural validations. Nothing is executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateWorkflow(args)
	},
}

func validateWorkflow(args []string) error {
	path, err := resolveWorkflowPath(args)
	if err != nil {
		return err
	}

	w, err := workflow.Parse(path)
	if err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("✓ ") + path + " is valid")
	fmt.Println(SubtitleStyle.Render(fmt.Sprintf("  workflow %q, %d job(s)", w.Name, len(w.Jobs))))
	return nil
}

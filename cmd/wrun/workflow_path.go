// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wrun-cli/internal/issue"
)

// defaultWorkflowDir is where workflow files are looked up when no path is
// given on the command line.
const defaultWorkflowDir = ".ci"

// resolveWorkflowPath picks the workflow file to operate on: the explicit
// argument when present, then .ci/workflow.yml, then the first YAML file in
// .ci/ in lexicographic order.
func resolveWorkflowPath(args []string) (string, error) {
	if len(args) > 0 {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return "", issue.NewErrorContext().
				WithOperation("locate workflow").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("workflow file not found: %s", path)).
				BuildError()
		}
		return path, nil
	}

	preferred := filepath.Join(defaultWorkflowDir, "workflow.yml")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	entries, err := os.ReadDir(defaultWorkflowDir)
	if err == nil {
		var candidates []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
				candidates = append(candidates, filepath.Join(defaultWorkflowDir, name))
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return candidates[0], nil
		}
	}

	return "", issue.NewErrorContext().
		WithOperation("locate workflow").
		WithResource(defaultWorkflowDir).
		WithSuggestion("Pass a workflow file path explicitly: wrun run path/to/workflow.yml").
		WithSuggestion("Or create .ci/workflow.yml in the current directory").
		Wrap(fmt.Errorf("no workflow file found")).
		BuildError()
}

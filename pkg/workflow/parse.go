// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	_ "embed"
	"fmt"
	"os"

	"wrun-cli/pkg/cueutil"
)

//go:embed workflow_schema.cue
var workflowSchema string

// Parse reads and parses a workflow file from the given path.
func Parse(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow at %s: %w", path, err)
	}

	return ParseBytes(data, path)
}

// ParseBytes parses workflow content from bytes. The YAML document is
// validated against the embedded CUE schema, decoded, normalized (job
// names, matrices), and passed through the Go-level validators.
func ParseBytes(data []byte, path string) (*Workflow, error) {
	result, err := cueutil.ParseYAMLAndDecode[Workflow](
		workflowSchema,
		data,
		"#Workflow",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	w := result.Value
	w.FilePath = path

	for name, job := range w.Jobs {
		job.Name = name

		if job.Strategy != nil {
			m, err := normalizeMatrix(job.Strategy.RawMatrix)
			if err != nil {
				return nil, fmt.Errorf("%s: job %q: %w", path, name, err)
			}
			job.Strategy.Matrix = m
		}
	}

	// Validate and collect all errors rather than stopping at the first.
	if errs := w.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return w, nil
}

// SPDX-License-Identifier: MPL-2.0

// Package workflow defines the workflow file model and its parser.
//
// Workflow files are YAML documents describing trigger conditions, an
// optional build matrix, and a sequence of shell steps per job. Files are
// validated in two layers: an embedded CUE schema rejects structural
// violations with precise field paths, and Go-level validators enforce the
// constraints CUE cannot express (step uses/run exclusivity, duplicate
// matrix values, unknown exclude axes).
package workflow

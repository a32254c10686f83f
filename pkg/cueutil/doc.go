// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing helpers: schema-validated
// decoding of CUE and YAML documents into Go structs, error formatting
// with JSON-path prefixes, and file size guards.
//
// Workflow files are YAML validated against an embedded CUE schema; the
// config file is CUE validated against its own schema. Both flows share
// the compile-unify-decode pipeline in this package.
package cueutil

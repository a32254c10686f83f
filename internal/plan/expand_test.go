// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"reflect"
	"testing"

	"wrun-cli/pkg/workflow"
)

func strategyWith(m *workflow.Matrix) *workflow.Strategy {
	return &workflow.Strategy{Matrix: m}
}

func TestExpandNilStrategy(t *testing.T) {
	cells := Expand(nil)
	if len(cells) != 1 {
		t.Fatalf("expected one implicit cell, got %d", len(cells))
	}
	if cells[0].Name != "" {
		t.Errorf("implicit cell must have an empty name, got %q", cells[0].Name)
	}
	if len(cells[0].Values) != 0 {
		t.Errorf("implicit cell must carry no values, got %v", cells[0].Values)
	}
}

func TestExpandSingleAxis(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"crypto-backend": {"rustcrypto", "mbedtls", "openssl"},
		},
	}))

	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}

	wantNames := []string{
		"crypto-backend=rustcrypto",
		"crypto-backend=mbedtls",
		"crypto-backend=openssl",
	}
	for i, want := range wantNames {
		if cells[i].Name != want {
			t.Errorf("cell %d name = %q, want %q", i, cells[i].Name, want)
		}
	}
}

func TestExpandCartesianProduct(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"os":      {"linux", "macos"},
			"backend": {"a", "b"},
		},
	}))

	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}

	// Axes iterate lexicographically (backend before os), values in
	// declared order.
	wantNames := []string{
		"backend=a, os=linux",
		"backend=a, os=macos",
		"backend=b, os=linux",
		"backend=b, os=macos",
	}
	for i, want := range wantNames {
		if cells[i].Name != want {
			t.Errorf("cell %d name = %q, want %q", i, cells[i].Name, want)
		}
	}
}

func TestExpandExclude(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"os":      {"linux", "macos"},
			"backend": {"a", "b"},
		},
		Exclude: []workflow.Combination{
			{"os": "macos", "backend": "b"},
		},
	}))

	if len(cells) != 3 {
		t.Fatalf("expected 3 cells after exclude, got %d", len(cells))
	}
	for _, cell := range cells {
		if cell.Values["os"] == "macos" && cell.Values["backend"] == "b" {
			t.Errorf("excluded combination survived: %v", cell.Values)
		}
	}
}

func TestExpandExcludePartialMatch(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"os":      {"linux", "macos"},
			"backend": {"a", "b"},
		},
		Exclude: []workflow.Combination{
			{"os": "macos"},
		},
	}))

	if len(cells) != 2 {
		t.Fatalf("partial exclude should remove every macos cell, got %d cells", len(cells))
	}
	for _, cell := range cells {
		if cell.Values["os"] != "linux" {
			t.Errorf("unexpected cell survived: %v", cell.Values)
		}
	}
}

func TestExpandIncludeMergesExtraKey(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"backend": {"a", "b"},
		},
		Include: []workflow.Combination{
			{"backend": "a", "flags": "--release"},
		},
	}))

	if len(cells) != 2 {
		t.Fatalf("include matching an existing cell must not add cells, got %d", len(cells))
	}

	want := workflow.Combination{"backend": "a", "flags": "--release"}
	if !reflect.DeepEqual(cells[0].Values, want) {
		t.Errorf("cell 0 = %v, want %v", cells[0].Values, want)
	}
	if _, ok := cells[1].Values["flags"]; ok {
		t.Errorf("include leaked into a non-matching cell: %v", cells[1].Values)
	}
}

func TestExpandIncludeAppendsNewCell(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"backend": {"a", "b"},
		},
		Include: []workflow.Combination{
			{"backend": "experimental"},
		},
	}))

	if len(cells) != 3 {
		t.Fatalf("non-matching include must append a cell, got %d", len(cells))
	}
	if cells[2].Values["backend"] != "experimental" {
		t.Errorf("appended cell = %v", cells[2].Values)
	}
}

func TestExpandIncludeResurrectsExcludedCell(t *testing.T) {
	cells := Expand(strategyWith(&workflow.Matrix{
		Axes: map[workflow.AxisName][]workflow.MatrixValue{
			"backend": {"a", "b"},
		},
		Exclude: []workflow.Combination{
			{"backend": "b"},
		},
		Include: []workflow.Combination{
			{"backend": "b"},
		},
	}))

	if len(cells) != 2 {
		t.Fatalf("expected exclude-then-include to restore the cell, got %d cells", len(cells))
	}
	if cells[1].Values["backend"] != "b" {
		t.Errorf("restored cell = %v", cells[1].Values)
	}
}

func TestExpandEmptyMatrixIsImplicitCell(t *testing.T) {
	cells := Expand(&workflow.Strategy{})
	if len(cells) != 1 || len(cells[0].Values) != 0 {
		t.Fatalf("strategy without a matrix must yield the implicit cell, got %v", cells)
	}
}

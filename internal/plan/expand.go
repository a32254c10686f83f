// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"fmt"
	"strings"

	"wrun-cli/pkg/workflow"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Cell is one expanded matrix combination. A job without a matrix expands
// to a single implicit cell with no values.
type Cell struct {
	// Values assigns one value per axis (plus any extra keys contributed
	// by include entries).
	Values workflow.Combination

	// Name is a stable human-readable identifier such as
	// "crypto-backend=mbedtls". Empty for the implicit cell.
	Name string
}

// Expand computes the matrix cells for a strategy:
//
//  1. Cartesian product over the axes, axis order lexicographic, value
//     order as declared in the file.
//  2. Exclude entries remove every cell they match (partial match on the
//     shared axes).
//  3. Include entries merge extra keys into the cells they match, or
//     append a brand-new cell when they match none.
//
// A nil strategy (or an empty matrix) yields the single implicit cell, so
// callers never special-case matrix-less jobs.
func Expand(s *workflow.Strategy) []Cell {
	if s == nil || s.Matrix == nil || (len(s.Matrix.Axes) == 0 && len(s.Matrix.Include) == 0) {
		return []Cell{{Values: workflow.Combination{}}}
	}

	m := s.Matrix

	axes := maps.Keys(m.Axes)
	slices.Sort(axes)

	combos := []workflow.Combination{{}}
	for _, axis := range axes {
		next := make([]workflow.Combination, 0, len(combos)*len(m.Axes[axis]))
		for _, base := range combos {
			for _, value := range m.Axes[axis] {
				combo := make(workflow.Combination, len(base)+1)
				maps.Copy(combo, base)
				combo[axis] = value
				next = append(next, combo)
			}
		}
		combos = next
	}

	// Exclude before include: GH semantics, and it means an include entry
	// can resurrect a specific excluded combination by re-adding it.
	filtered := combos[:0]
	for _, combo := range combos {
		excluded := false
		for _, ex := range m.Exclude {
			if ex.Matches(combo) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, combo)
		}
	}
	combos = filtered

	for _, inc := range m.Include {
		matched := false
		for _, combo := range combos {
			if axisSubset(inc, m).Matches(combo) {
				maps.Copy(combo, inc)
				matched = true
			}
		}
		if !matched {
			extra := make(workflow.Combination, len(inc))
			maps.Copy(extra, inc)
			combos = append(combos, extra)
		}
	}

	cells := make([]Cell, len(combos))
	for i, combo := range combos {
		cells[i] = Cell{Values: combo, Name: cellName(combo)}
	}
	return cells
}

// axisSubset returns the part of an include entry that refers to declared
// axes. Extra keys carry payload values and do not participate in matching.
func axisSubset(combo workflow.Combination, m *workflow.Matrix) workflow.Combination {
	subset := make(workflow.Combination)
	for axis, value := range combo {
		if _, ok := m.Axes[axis]; ok {
			subset[axis] = value
		}
	}
	return subset
}

// cellName renders a deterministic display name: axes sorted, one
// axis=value pair per axis, comma-separated.
func cellName(combo workflow.Combination) string {
	if len(combo) == 0 {
		return ""
	}

	axes := maps.Keys(combo)
	slices.Sort(axes)

	parts := make([]string, len(axes))
	for i, axis := range axes {
		parts[i] = fmt.Sprintf("%s=%s", axis, combo[axis])
	}
	return strings.Join(parts, ", ")
}

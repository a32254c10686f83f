// SPDX-License-Identifier: MPL-2.0

package workflow

import (
	"fmt"
	"strconv"
)

// Reserved matrix keys that declare combination lists rather than axes.
const (
	matrixKeyInclude = "include"
	matrixKeyExclude = "exclude"
)

type (
	// MatrixValue is a single axis value. Values are opaque tokens to the
	// runner: scalars from the file (string, int, bool) are normalized to
	// their string form and substituted verbatim into step templates.
	// Whether a value is meaningful downstream (e.g., names a feature flag
	// the build tool accepts) is an external contract.
	MatrixValue string

	// Combination is a partial or full assignment of axis values, used by
	// include/exclude entries and by expanded cells.
	Combination map[AxisName]MatrixValue

	// Matrix is the normalized build matrix: named axes with ordered value
	// lists, plus include/exclude combination lists applied after the
	// cartesian product.
	Matrix struct {
		Axes    map[AxisName][]MatrixValue
		Include []Combination
		Exclude []Combination
	}
)

// normalizeMatrix converts the raw decoded matrix mapping into a Matrix.
// Raw values arrive as whatever the YAML decoder produced; scalars outside
// string/int/bool were already rejected by the schema.
func normalizeMatrix(raw map[string]any) (*Matrix, error) {
	m := &Matrix{
		Axes: make(map[AxisName][]MatrixValue),
	}

	for key, value := range raw {
		switch key {
		case matrixKeyInclude, matrixKeyExclude:
			combos, err := normalizeCombinations(key, value)
			if err != nil {
				return nil, err
			}
			if key == matrixKeyInclude {
				m.Include = combos
			} else {
				m.Exclude = combos
			}
		default:
			axis := AxisName(key)
			if ok, errs := axis.IsValid(); !ok {
				return nil, errs[0]
			}
			values, err := normalizeAxisValues(axis, value)
			if err != nil {
				return nil, err
			}
			m.Axes[axis] = values
		}
	}

	return m, nil
}

func normalizeAxisValues(axis AxisName, value any) ([]MatrixValue, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("matrix axis %q: expected a list of values, got %T", axis, value)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("matrix axis %q: value list must not be empty", axis)
	}

	values := make([]MatrixValue, 0, len(list))
	for i, item := range list {
		v, err := matrixValueFrom(item)
		if err != nil {
			return nil, fmt.Errorf("matrix axis %q[%d]: %w", axis, i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func normalizeCombinations(key string, value any) ([]Combination, error) {
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("matrix %s: expected a list of mappings, got %T", key, value)
	}

	combos := make([]Combination, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("matrix %s[%d]: expected a mapping, got %T", key, i, item)
		}

		combo := make(Combination, len(entry))
		for k, v := range entry {
			axis := AxisName(k)
			if ok, errs := axis.IsValid(); !ok {
				return nil, fmt.Errorf("matrix %s[%d]: %w", key, i, errs[0])
			}
			mv, err := matrixValueFrom(v)
			if err != nil {
				return nil, fmt.Errorf("matrix %s[%d].%s: %w", key, i, k, err)
			}
			combo[axis] = mv
		}
		combos = append(combos, combo)
	}
	return combos, nil
}

// matrixValueFrom normalizes a decoded scalar to its MatrixValue string form.
func matrixValueFrom(v any) (MatrixValue, error) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", fmt.Errorf("matrix value must not be empty")
		}
		return MatrixValue(val), nil
	case bool:
		return MatrixValue(strconv.FormatBool(val)), nil
	case int:
		return MatrixValue(strconv.Itoa(val)), nil
	case int64:
		return MatrixValue(strconv.FormatInt(val, 10)), nil
	case uint64:
		return MatrixValue(strconv.FormatUint(val, 10)), nil
	default:
		return "", fmt.Errorf("unsupported matrix value type %T", v)
	}
}

// String returns the matrix value as a plain string.
func (v MatrixValue) String() string { return string(v) }

// Matches reports whether every axis value in c equals the corresponding
// value in full. Axes absent from c are ignored, so a partial combination
// matches any cell that agrees on the shared axes.
func (c Combination) Matches(full Combination) bool {
	for axis, want := range c {
		if got, ok := full[axis]; !ok || got != want {
			return false
		}
	}
	return true
}

// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"fmt"
	"strings"

	"wrun-cli/pkg/workflow"
)

// Expression delimiters. Only full `${{ ... }}` expressions are
// interpolated; a bare `$` is left alone for the shell.
const (
	exprOpen  = "${{"
	exprClose = "}}"
)

var (
	// ErrUnknownContext is the sentinel error wrapped by UnknownContextError.
	ErrUnknownContext = errors.New("unknown expression context")
	// ErrUnknownKey is the sentinel error wrapped by UnknownKeyError.
	ErrUnknownKey = errors.New("unknown expression key")
	// ErrBadExpression is the sentinel error wrapped by BadExpressionError.
	ErrBadExpression = errors.New("malformed expression")
)

type (
	// Contexts holds the values available to ${{ ... }} expressions.
	Contexts struct {
		// Matrix exposes the current cell's values as ${{ matrix.<axis> }}.
		Matrix workflow.Combination
		// Env exposes the merged environment as ${{ env.<NAME> }}.
		Env map[string]string
	}

	// UnknownContextError is returned for expressions referencing a context
	// other than matrix or env. It wraps ErrUnknownContext for errors.Is.
	UnknownContextError struct {
		Context string
	}

	// UnknownKeyError is returned when a context does not contain the
	// referenced key. It wraps ErrUnknownKey for errors.Is.
	UnknownKeyError struct {
		Context string
		Key     string
	}

	// BadExpressionError is returned for syntactically malformed
	// expressions (unterminated delimiters, missing key). It wraps
	// ErrBadExpression for errors.Is.
	BadExpressionError struct {
		Expr string
	}
)

// Error implements the error interface.
func (e *UnknownContextError) Error() string {
	return fmt.Sprintf("unknown expression context %q (supported: matrix, env)", e.Context)
}

// Unwrap returns ErrUnknownContext so callers can use errors.Is.
func (e *UnknownContextError) Unwrap() error { return ErrUnknownContext }

// Error implements the error interface.
func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s context has no key %q", e.Context, e.Key)
}

// Unwrap returns ErrUnknownKey so callers can use errors.Is.
func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// Error implements the error interface.
func (e *BadExpressionError) Error() string {
	return fmt.Sprintf("malformed expression %q", e.Expr)
}

// Unwrap returns ErrBadExpression so callers can use errors.Is.
func (e *BadExpressionError) Unwrap() error { return ErrBadExpression }

// Interpolate replaces every ${{ context.key }} expression in s with its
// value from ctx. Text outside expressions passes through untouched.
// Unknown contexts or keys are plan-time errors: a template that references
// a misspelled axis must fail loudly, not expand to an empty string inside
// a shell command.
func Interpolate(s string, ctx *Contexts) (string, error) {
	if !strings.Contains(s, exprOpen) {
		return s, nil
	}

	var b strings.Builder
	rest := s
	for {
		i := strings.Index(rest, exprOpen)
		if i < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}

		b.WriteString(rest[:i])
		rest = rest[i+len(exprOpen):]

		end := strings.Index(rest, exprClose)
		if end < 0 {
			return "", &BadExpressionError{Expr: exprOpen + rest}
		}

		expr := strings.TrimSpace(rest[:end])
		rest = rest[end+len(exprClose):]

		value, err := ctx.resolve(expr)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
	}
}

// resolve evaluates a single trimmed expression of the form context.key.
func (c *Contexts) resolve(expr string) (string, error) {
	name, key, found := strings.Cut(expr, ".")
	if !found || name == "" || key == "" {
		return "", &BadExpressionError{Expr: expr}
	}

	switch name {
	case "matrix":
		value, ok := c.Matrix[workflow.AxisName(key)]
		if !ok {
			return "", &UnknownKeyError{Context: name, Key: key}
		}
		return value.String(), nil
	case "env":
		value, ok := c.Env[key]
		if !ok {
			return "", &UnknownKeyError{Context: name, Key: key}
		}
		return value, nil
	default:
		return "", &UnknownContextError{Context: name}
	}
}

// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Task: {
	name: string & !=""
	run:  string & !=""
	envs?: [string]: string
}
`

type testTask struct {
	Name string            `json:"name"`
	Run  string            `json:"run"`
	Envs map[string]string `json:"envs,omitempty"`
}

func TestParseAndDecodeString(t *testing.T) {
	data := []byte(`
name: "build"
run:  "cargo build"
envs: {CARGO_TERM_COLOR: "always"}
`)

	result, err := ParseAndDecodeString[testTask](testSchema, data, "#Task")
	if err != nil {
		t.Fatalf("ParseAndDecodeString() error = %v", err)
	}

	if result.Value.Name != "build" {
		t.Errorf("Name = %q, want build", result.Value.Name)
	}
	if result.Value.Run != "cargo build" {
		t.Errorf("Run = %q, want cargo build", result.Value.Run)
	}
	if result.Value.Envs["CARGO_TERM_COLOR"] != "always" {
		t.Errorf("Envs = %v, missing CARGO_TERM_COLOR", result.Value.Envs)
	}
}

func TestParseAndDecodeStringSchemaViolation(t *testing.T) {
	data := []byte(`
name: ""
run:  "cargo build"
`)

	_, err := ParseAndDecodeString[testTask](testSchema, data, "#Task", WithFilename("task.cue"))
	if err == nil {
		t.Fatal("expected schema violation error")
	}
	if !strings.Contains(err.Error(), "task.cue") {
		t.Errorf("expected filename in error, got %q", err.Error())
	}
}

func TestParseAndDecodeStringUnknownSchemaPath(t *testing.T) {
	_, err := ParseAndDecodeString[testTask](testSchema, []byte(`name: "x"`), "#Missing")
	if err == nil {
		t.Fatal("expected error for unknown schema definition")
	}
	if !strings.Contains(err.Error(), "#Missing") {
		t.Errorf("expected schema path in error, got %q", err.Error())
	}
}

func TestParseYAMLAndDecode(t *testing.T) {
	data := []byte(`
name: test
run: cargo test -- --test-threads=1
envs:
  CARGO_TERM_COLOR: always
`)

	result, err := ParseYAMLAndDecode[testTask](testSchema, data, "#Task", WithFilename("task.yml"))
	if err != nil {
		t.Fatalf("ParseYAMLAndDecode() error = %v", err)
	}

	if result.Value.Name != "test" {
		t.Errorf("Name = %q, want test", result.Value.Name)
	}
	if !strings.Contains(result.Value.Run, "--test-threads=1") {
		t.Errorf("Run = %q, expected test-threads flag preserved", result.Value.Run)
	}
}

func TestParseYAMLAndDecodeInvalidYAML(t *testing.T) {
	_, err := ParseYAMLAndDecode[testTask](testSchema, []byte("name: [unclosed"), "#Task", WithFilename("bad.yml"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "bad.yml") {
		t.Errorf("expected filename in error, got %q", err.Error())
	}
}

func TestParseYAMLAndDecodeSchemaViolation(t *testing.T) {
	data := []byte(`
name: test
run: 42
`)

	_, err := ParseYAMLAndDecode[testTask](testSchema, data, "#Task", WithFilename("task.yml"))
	if err == nil {
		t.Fatal("expected schema violation for non-string run")
	}
}

func TestParseAndDecodeFileSizeLimit(t *testing.T) {
	data := []byte(`name: "x", run: "y"`)
	_, err := ParseAndDecodeString[testTask](testSchema, data, "#Task", WithMaxFileSize(4), WithFilename("tiny.cue"))
	if err == nil {
		t.Fatal("expected file size error")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size limit message, got %q", err.Error())
	}
}

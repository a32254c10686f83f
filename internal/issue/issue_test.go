// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGetKnownIssues(t *testing.T) {
	ids := []Id{
		WorkflowNotFoundId,
		WorkflowParseErrorId,
		EventNotMatchedId,
		RunnerNotAvailableId,
		ContainerEngineNotFoundId,
		ShellNotFoundId,
		StepFailedId,
		ConfigLoadFailedId,
		UnknownActionId,
	}

	for _, id := range ids {
		iss := Get(id)
		if iss == nil {
			t.Errorf("Get(%d) = nil, want registered issue", id)
			continue
		}
		if iss.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, iss.Id())
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("issue %d has empty markdown body", id)
		}
	}
}

func TestGetUnknownIssue(t *testing.T) {
	if iss := Get(Id(9999)); iss != nil {
		t.Errorf("Get(9999) = %v, want nil", iss)
	}
}

func TestValuesCoversRegistry(t *testing.T) {
	if got := len(Values()); got != len(issues) {
		t.Errorf("Values() returned %d issues, registry has %d", got, len(issues))
	}
}

func TestIssueRender(t *testing.T) {
	orig := render
	defer func() { render = orig }()

	var rendered string
	render = func(in, stylePath string) (string, error) {
		rendered = in
		return in, nil
	}

	out, err := Get(StepFailedId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out == "" || rendered == "" {
		t.Fatal("expected rendered markdown output")
	}
	if !strings.Contains(rendered, "wrun plan") {
		t.Errorf("expected help page to mention wrun plan, got %q", rendered)
	}
}

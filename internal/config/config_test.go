// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loading defaults failed: %v", err)
	}

	want := DefaultConfig()
	if cfg.DefaultRunner != want.DefaultRunner {
		t.Errorf("default_runner = %q, want %q", cfg.DefaultRunner, want.DefaultRunner)
	}
	if cfg.ContainerEngine != want.ContainerEngine {
		t.Errorf("container_engine = %q, want %q", cfg.ContainerEngine, want.ContainerEngine)
	}
	if cfg.Container.DefaultImage != want.Container.DefaultImage {
		t.Errorf("container.default_image = %q", cfg.Container.DefaultImage)
	}
	if cfg.Watch.DebounceMs != want.Watch.DebounceMs {
		t.Errorf("watch.debounce_ms = %d", cfg.Watch.DebounceMs)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
default_runner: "virtual"
max_parallel: 2
container: {
	default_image: "rust:1.80"
}
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DefaultRunner != RunnerVirtual {
		t.Errorf("default_runner = %q", cfg.DefaultRunner)
	}
	if cfg.MaxParallel != 2 {
		t.Errorf("max_parallel = %d", cfg.MaxParallel)
	}
	if cfg.Container.DefaultImage != "rust:1.80" {
		t.Errorf("container.default_image = %q", cfg.Container.DefaultImage)
	}
	// Untouched keys keep their defaults.
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ui.color_scheme = %q", cfg.UI.ColorScheme)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown runner", content: `default_runner: "vm"`},
		{name: "negative parallelism", content: `max_parallel: -1`},
		{name: "unknown engine", content: `container_engine: "containerd"`},
		{name: "excessive debounce", content: "watch: {\n\tdebounce_ms: 120000\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Error("expected a schema validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if err == nil {
		t.Error("expected an error for a canceled context")
	}
}

func TestGenerateCUERoundTrips(t *testing.T) {
	original := DefaultConfig()
	original.DefaultRunner = RunnerContainer
	original.MaxParallel = 4
	original.Container.DefaultImage = "rust:1.80"
	original.UI.Verbose = true

	path := writeConfigFile(t, GenerateCUE(original))
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated CUE failed to load: %v", err)
	}

	if cfg.DefaultRunner != original.DefaultRunner ||
		cfg.MaxParallel != original.MaxParallel ||
		cfg.Container.DefaultImage != original.Container.DefaultImage ||
		cfg.UI.Verbose != original.UI.Verbose {
		t.Errorf("round trip mismatch: %+v", cfg)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)

	dir := t.TempDir()
	SetConfigDirOverride(dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir failed: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir = %q, want %q", got, dir)
	}
}

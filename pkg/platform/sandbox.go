// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Sandbox type constants.
const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap indicates a Snap sandbox environment.
	SandboxSnap SandboxType = "snap"
)

// SandboxType identifies the type of application sandbox, if any.
type SandboxType string

// detectOnce caches the sandbox detection result for the lifetime of the
// process. Sandbox type is immutable during process lifetime, making
// process-wide caching safe.
//
// INVARIANT: detectSandboxFrom MUST NOT panic. sync.OnceValue propagates a
// panic on every call, which would turn a single detection bug into a
// persistent crash condition.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, statFile)
})

// DetectSandbox returns the type of application sandbox the current process
// is running in. The result is cached after the first call.
//
// Detection methods:
//   - Flatpak: checks for existence of /.flatpak-info
//   - Snap: checks for the SNAP_NAME environment variable
func DetectSandbox() SandboxType {
	return detectOnce()
}

// IsInSandbox returns true if the current process is running inside a sandbox.
func IsInSandbox() bool {
	return DetectSandbox() != SandboxNone
}

// SpawnCommand returns the command used to spawn step processes on the host
// system, or an empty string when not sandboxed. Running build and test
// steps inside the sandbox would hide the host toolchain, so the native
// runner escapes to the host when a spawn command is available.
func SpawnCommand() string {
	return SpawnCommandFor(DetectSandbox())
}

// SpawnArgs returns the arguments to prepend before the actual command when
// escaping the sandbox. Nil when not sandboxed.
func SpawnArgs() []string {
	return SpawnArgsFor(DetectSandbox())
}

// SpawnCommandFor returns the spawn command for a given sandbox type.
// This is a pure function that does not depend on cached detection state,
// making it directly testable without process-wide side effects.
func SpawnCommandFor(st SandboxType) string {
	switch st {
	case SandboxFlatpak:
		return "flatpak-spawn"
	case SandboxSnap:
		return "snap"
	default:
		return ""
	}
}

// SpawnArgsFor returns the spawn arguments for a given sandbox type.
func SpawnArgsFor(st SandboxType) []string {
	switch st {
	case SandboxFlatpak:
		return []string{"--host"}
	case SandboxSnap:
		return []string{"run", "--shell"}
	default:
		return nil
	}
}

// detectSandboxFrom performs sandbox detection using the provided lookup
// functions. Accepting lookupEnv and statFile as parameters allows tests to
// inject custom behavior without mutating process-wide state.
func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// Flatpak takes precedence; /.flatpak-info is always present inside
	// Flatpak sandboxes.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}

	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}

	return SandboxNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}

// SPDX-License-Identifier: MPL-2.0

//go:build windows

package sshserver

import (
	"fmt"
	"os"
	"os/exec"
)

// startPty is unsupported on Windows; ConPTY support in creack/pty is not
// stable enough to rely on. Clients can still run commands without a PTY.
func startPty(*exec.Cmd) (*os.File, error) {
	return nil, fmt.Errorf("PTY sessions are not supported on Windows")
}

// setWinsize is a no-op on Windows.
func setWinsize(*os.File, int, int) {}

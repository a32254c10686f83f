// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package sshserver

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"github.com/creack/pty"
)

// startPty starts a command attached to a new pseudo-terminal.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

// setWinsize propagates the SSH client's window size to the PTY.
func setWinsize(f *os.File, width, height int) {
	syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(syscall.TIOCSWINSZ), //nolint:errcheck // best-effort resize
		uintptr(unsafe.Pointer(&struct {
			h, w, x, y uint16
		}{uint16(height), uint16(width), 0, 0})))
}

// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// Win32 error codes that leave the watcher in an unrecoverable state.
const (
	// ERROR_TOO_MANY_OPEN_FILES (4): per-process handle limit exceeded.
	errnoTooManyOpenFiles = syscall.Errno(4)
	// ERROR_INVALID_HANDLE (6): the watched directory was deleted or
	// unmounted and the handle is no longer valid.
	errnoInvalidHandle = syscall.Errno(6)
	// ERROR_NOT_ENOUGH_MEMORY (8): the ReadDirectoryChangesW notification
	// buffer could not be allocated.
	errnoNotEnoughMemory = syscall.Errno(8)
)

// isFatalFsnotifyError classifies watcher errors that cannot be recovered
// from. Windows has no inotify-style watch limits, but handle exhaustion and
// invalidated directory handles still mean the watcher is broken.
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, errnoTooManyOpenFiles) ||
		errors.Is(err, errnoInvalidHandle) ||
		errors.Is(err, errnoNotEnoughMemory)
}

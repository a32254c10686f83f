// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: fmt.Errorf("run: %w", context.DeadlineExceeded), want: false},
		{name: "ping_group_range race", err: errors.New("crun: ping_group_range: invalid argument"), want: true},
		{name: "oci runtime error", err: errors.New("OCI runtime error: something"), want: true},
		{name: "dns failure", err: errors.New("Could not resolve host: registry-1.docker.io"), want: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: true},
		{name: "overlay mount race", err: errors.New("error creating overlay mount to /var/lib"), want: true},
		{name: "ordinary failure", err: errors.New("no such image"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func testServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestNewGeneratesToken(t *testing.T) {
	s := testServer(t, Config{})
	if len(s.Token()) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(s.Token()))
	}

	other := testServer(t, Config{})
	if s.Token() == other.Token() {
		t.Error("two servers must not share a generated token")
	}
}

func TestNewKeepsExplicitToken(t *testing.T) {
	s := testServer(t, Config{Token: "sesame"})
	if s.Token() != "sesame" {
		t.Errorf("token = %q, want %q", s.Token(), "sesame")
	}
}

func TestServerStartStop(t *testing.T) {
	s := testServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	if !s.IsRunning() {
		t.Errorf("state = %s, want running", s.State())
	}
	if s.Address() == "" {
		t.Error("Address() should be set after start")
	}
	if s.Port() == 0 {
		t.Error("Port() should be non-zero after start")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state after stop = %s, want stopped", s.State())
	}
}

func TestServerDoubleStart(t *testing.T) {
	s := testServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop() //nolint:errcheck // cleanup

	if err := s.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestServerDoubleStop(t *testing.T) {
	s := testServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("first Stop() error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := testServer(t, Config{})
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() before Start() error: %v", err)
	}
	if s.State() != StateCreated {
		t.Errorf("state = %s, want created", s.State())
	}
}

func TestServerStartWithCanceledContext(t *testing.T) {
	s := testServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Start(ctx); err == nil {
		t.Error("Start() with canceled context should fail")
	}
}

func TestServerStartWithUsedPort(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close() //nolint:errcheck // cleanup

	port := listener.Addr().(*net.TCPAddr).Port
	s := testServer(t, Config{Port: port})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err == nil {
		t.Error("Start() on an occupied port should fail")
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if s.Wait() == nil {
		t.Error("Wait() after failure should return the error")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{state: StateCreated, want: "created"},
		{state: StateStarting, want: "starting"},
		{state: StateRunning, want: "running"},
		{state: StateStopping, want: "stopping"},
		{state: StateStopped, want: "stopped"},
		{state: StateFailed, want: "failed"},
		{state: State(42), want: "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenMatches(t *testing.T) {
	s := testServer(t, Config{Token: "correct-token"})

	if !s.tokenMatches("correct-token") {
		t.Error("valid token rejected")
	}
	if s.tokenMatches("wrong-token") {
		t.Error("invalid token accepted")
	}
	if s.tokenMatches("") {
		t.Error("empty token accepted")
	}
}

func TestPublicKeyAlwaysRejected(t *testing.T) {
	s := testServer(t, Config{})
	if s.publicKeyHandler(nil, nil) {
		t.Error("public key auth must be rejected")
	}
}

func TestSessionCommandAllowlist(t *testing.T) {
	for _, allowed := range []string{"run", "plan", "list", "validate"} {
		if !sessionCommands[allowed] {
			t.Errorf("%q should be allowed", allowed)
		}
	}
	for _, denied := range []string{"serve", "config", "sh", "rm"} {
		if sessionCommands[denied] {
			t.Errorf("%q should not be allowed", denied)
		}
	}
}

func TestCommandListSorted(t *testing.T) {
	if got, want := commandList(), "list, plan, run, validate"; got != want {
		t.Errorf("commandList() = %q, want %q", got, want)
	}
}

func TestIsClosedConnError(t *testing.T) {
	closedErr := &net.OpError{Op: "accept", Err: errors.New("use of closed network connection")}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "closed connection", err: closedErr, want: true},
		{name: "other op error", err: &net.OpError{Op: "read", Err: errors.New("reset")}, want: false},
		{name: "plain error", err: fmt.Errorf("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isClosedConnError(tt.err); got != tt.want {
				t.Errorf("isClosedConnError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitAfterStop(t *testing.T) {
	s := testServer(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Wait() }()

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return after Stop()")
	}
}

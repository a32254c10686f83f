// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated State = iota
	// StateStarting indicates the server is in the process of starting.
	StateStarting
	// StateRunning indicates the server is accepting connections.
	StateRunning
	// StateStopping indicates the server is shutting down.
	StateStopping
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start or hit a fatal error
	// (terminal state).
	StateFailed
)

const (
	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// sessionCommands are the subcommands a remote session may invoke. Everything
// else is rejected before execution.
var sessionCommands = map[string]bool{
	"run":      true,
	"plan":     true,
	"list":     true,
	"validate": true,
}

type (
	// State represents the lifecycle state of the server.
	State int32

	// ExecFunc runs one session command in-process and returns its exit
	// code. args is the full command line, starting with the subcommand.
	ExecFunc func(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int

	// Config holds the parameters for a Server.
	Config struct {
		// Host is the address to bind. Defaults to 127.0.0.1.
		Host string
		// Port is the port to bind. Zero picks a free port.
		Port int
		// Token is the session token. Empty generates a random one.
		Token string
		// Workdir is the workspace PTY sessions run in.
		Workdir string
		// Exec runs non-PTY session commands in-process.
		Exec ExecFunc
		// StartupTimeout bounds how long Start may take.
		StartupTimeout time.Duration
		// ShutdownTimeout bounds graceful shutdown.
		ShutdownTimeout time.Duration
		// Logger receives server logging. Defaults to a stderr logger.
		Logger *log.Logger
	}

	// Server serves workflow commands over SSH. A Server instance is
	// single-use: once stopped or failed, create a new one.
	Server struct {
		cfg    Config
		token  string
		logger *log.Logger

		state     atomic.Int32
		startedCh chan struct{}
		errCh     chan error
		wg        sync.WaitGroup
		ctx       context.Context

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
		lastErr  error
	}
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// NewToken generates a random session token.
func NewToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// New creates a server from the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	token := cfg.Token
	if token == "" {
		var err error
		token, err = NewToken()
		if err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "serve"})
	}

	s := &Server{
		cfg:       cfg,
		token:     token,
		logger:    logger,
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1), // buffered so goroutines don't block
	}
	s.state.Store(int32(StateCreated))

	return s, nil
}

// Token returns the session token clients must present as the SSH password.
func (s *Server) Token() string { return s.token }

// Start starts the server and blocks until it accepts connections, fails, or
// the startup timeout expires. After Start returns nil, use Err to monitor
// for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start canceled: %w", err)
	}
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("server cannot start from state %s", s.State())
	}
	s.ctx = ctx

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.transitionToFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.lastError()
	}

	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(s.sessionMiddleware()),
	)
	if err != nil {
		_ = listener.Close()
		s.transitionToFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.lastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.wg.Add(1)
	go s.serve()

	select {
	case <-s.startedCh:
		s.logger.Info("SSH server started", "address", s.addr)
		return nil
	case err := <-s.errCh:
		s.transitionToFailed(err)
		return err
	case <-startupCtx.Done():
		s.transitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.lastError()
	}
}

// Stop gracefully stops the server. Safe to call multiple times.
func (s *Server) Stop() error {
	swapped := s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) ||
		s.state.CompareAndSwap(int32(StateStarting), int32(StateStopping))
	if !swapped {
		s.wg.Wait()
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.srvMu.Unlock()

	s.wg.Wait()

	s.state.Store(int32(StateStopped))
	close(s.errCh)
	s.logger.Info("SSH server stopped")

	return shutdownErr
}

// Err returns a channel that receives fatal server errors. The channel is
// closed when the server stops.
func (s *Server) Err() <-chan error { return s.errCh }

// State returns the current server state.
func (s *Server) State() State { return State(s.state.Load()) }

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool { return s.State() == StateRunning }

// Address returns the bound address (host:port). Blocks until the server has
// started; returns empty when it never did.
func (s *Server) Address() string {
	select {
	case <-s.startedCh:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	case <-s.ctx.Done():
		return ""
	}
}

// Port returns the listening port, or 0 when the server never started.
func (s *Server) Port() int {
	addr := s.Address()
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return 0
	}
	return port
}

// Wait blocks until the server stops and returns its fatal error, if any.
func (s *Server) Wait() error {
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.lastError()
	}
	return nil
}

func (s *Server) serve() {
	defer s.wg.Done()

	if s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(s.startedCh)
	}

	s.srvMu.Lock()
	srv := s.srv
	listener := s.listener
	s.srvMu.Unlock()

	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err != nil {
		if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			return
		}
		select {
		case s.errCh <- fmt.Errorf("serve error: %w", err):
		default:
		}
	}
}

func (s *Server) transitionToFailed(err error) {
	s.srvMu.Lock()
	s.lastErr = err
	s.srvMu.Unlock()
	s.state.Store(int32(StateFailed))
}

func (s *Server) lastError() error {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.lastErr
}

// tokenMatches compares a candidate against the session token in constant
// time.
func (s *Server) tokenMatches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.token)) == 1
}

// passwordHandler accepts the session token as the SSH password.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if !s.tokenMatches(password) {
		s.logger.Warn("invalid token authentication attempt", "user", ctx.User())
		return false
	}
	s.logger.Debug("session authenticated", "user", ctx.User())
	return true
}

// publicKeyHandler rejects public key authentication; only the session token
// grants access.
func (s *Server) publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return false
}

// sessionMiddleware dispatches session commands. PTY sessions re-spawn this
// binary under a pseudo-terminal so interactive output works; plain sessions
// run in-process through the Exec callback.
func (s *Server) sessionMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			args := sess.Command()

			if len(args) == 0 {
				fmt.Fprintf(sess.Stderr(), "no command given (available: %s)\n", commandList())
				_ = sess.Exit(1)
				return
			}
			if !sessionCommands[args[0]] {
				fmt.Fprintf(sess.Stderr(), "command %q is not served (available: %s)\n", args[0], commandList())
				_ = sess.Exit(1)
				return
			}

			s.logger.Info("session command", "user", sess.User(), "command", strings.Join(args, " "))

			if _, _, isPty := sess.Pty(); isPty {
				s.runPTY(sess, args)
				return
			}

			if s.cfg.Exec == nil {
				fmt.Fprintln(sess.Stderr(), "server has no command handler configured")
				_ = sess.Exit(1)
				return
			}
			code := s.cfg.Exec(sess.Context(), args, sess, sess, sess.Stderr())
			_ = sess.Exit(code)
		}
	}
}

// runPTY executes the session command as a child process attached to a
// pseudo-terminal, forwarding window resizes and I/O.
func (s *Server) runPTY(sess ssh.Session, args []string) {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(sess.Stderr(), "cannot locate executable: %v\n", err)
		_ = sess.Exit(1)
		return
	}

	cmd := exec.CommandContext(sess.Context(), exe, args...)
	cmd.Dir = s.cfg.Workdir
	cmd.Env = append(os.Environ(), sess.Environ()...)

	ptyReq, winCh, _ := sess.Pty()
	cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := startPty(cmd)
	if err != nil {
		fmt.Fprintf(sess.Stderr(), "failed to start command: %v\n", err)
		_ = sess.Exit(1)
		return
	}
	defer func() { _ = f.Close() }()

	go func() {
		for win := range winCh {
			setWinsize(f, win.Width, win.Height)
		}
	}()

	go func() {
		_, _ = io.Copy(f, sess)
	}()
	_, _ = io.Copy(sess, f)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			_ = sess.Exit(exitErr.ExitCode())
			return
		}
	}
	_ = sess.Exit(0)
}

func commandList() string {
	names := slices.Sorted(maps.Keys(sessionCommands))
	return strings.Join(names, ", ")
}

// isClosedConnError reports whether err is a "use of closed network
// connection" error, which is expected during shutdown.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}

// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"wrun-cli/internal/sshserver"
)

var (
	serveHost  string
	servePort  int
	serveToken string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve workflow runs over SSH",
		Long: `Start an SSH server that lets remote clients trigger workflow runs on
this machine. A session token is generated at startup (or supplied with
--token) and must be presented as the SSH password.

Example session:
  ssh -p 2222 ci@host run --event pull_request`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveSSH(cmd.Context())
		},
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "address to bind")
	serveCmd.Flags().IntVar(&servePort, "port", 2222, "port to bind (0 picks a free port)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "session token (generated when empty)")
}

func serveSSH(ctx context.Context) error {
	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}

	srv, err := sshserver.New(sshserver.Config{
		Host:    serveHost,
		Port:    servePort,
		Token:   serveToken,
		Workdir: workdir,
		Exec:    execSessionCommand(workdir),
	})
	if err != nil {
		return err
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render("wrun serve") + SubtitleStyle.Render("  listening on "+srv.Address()))
	fmt.Println("  session token: " + CmdStyle.Render(srv.Token()))
	fmt.Println(SubtitleStyle.Render("  connect with: ssh -p <port> ci@<host> run"))

	select {
	case <-ctx.Done():
		return srv.Stop()
	case err := <-srv.Err():
		_ = srv.Stop()
		return err
	}
}

// execSessionCommand runs a session command by re-spawning this binary in
// the served workspace, so remote runs see exactly what a local invocation
// would.
func execSessionCommand(workdir string) sshserver.ExecFunc {
	return func(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
		exe, err := os.Executable()
		if err != nil {
			fmt.Fprintf(stderr, "cannot locate executable: %v\n", err)
			return 1
		}

		cmd := exec.CommandContext(ctx, exe, args...)
		cmd.Dir = workdir
		cmd.Stdin = stdin
		cmd.Stdout = stdout
		cmd.Stderr = stderr

		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return exitErr.ExitCode()
			}
			fmt.Fprintf(stderr, "failed to run command: %v\n", err)
			return 1
		}
		return 0
	}
}

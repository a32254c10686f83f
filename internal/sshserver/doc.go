// SPDX-License-Identifier: MPL-2.0

// Package sshserver exposes workflow runs over SSH. A session token is
// generated at startup and required as the SSH password, so only clients the
// operator handed the token to can trigger runs. Sessions may request a PTY
// for live, colored output.
package sshserver

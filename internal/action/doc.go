// SPDX-License-Identifier: MPL-2.0

// Package action provides the built-in step actions referenced by `uses:`.
// Actions run in-process; the only one today is checkout, which anchors a
// job to its workspace directory. Remote action fetching is deliberately
// unsupported: local runs work against the checkout you already have.
package action

// SPDX-License-Identifier: MPL-2.0

// Package executor runs execution plans. Matrix cells of a job run in
// parallel under a configurable bound while the steps inside each cell run
// strictly in order. Failures honor the job's fail-fast setting: when it is
// enabled, the first failed cell cancels the cells still running.
package executor

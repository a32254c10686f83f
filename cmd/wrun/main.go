// SPDX-License-Identifier: MPL-2.0

// wrun runs CI workflows locally: it parses a workflow file, expands the
// build matrix, and executes every cell on the selected runner backend.
package main

func main() {
	Execute()
}

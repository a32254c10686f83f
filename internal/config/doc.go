// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the wrun application configuration.
// Configuration lives in a CUE file validated against an embedded schema,
// loaded through Viper so defaults and file values merge cleanly.
package config

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for cellctl.
//
// Configuration comes from a single file named by the --config flag
// or, failing that, the CELLCTL_CONFIG environment variable. Without
// either, [Default] applies. There is no automatic file discovery and
// no per-value environment override, so a given file always means the
// same thing.
//
// The file may contain trusted and untrusted sections that override
// base values when [Config].Profile matches. The untrusted profile
// has stricter built-in defaults: a smaller validation budget and
// tighter bag-of-cells limits.
//
// Key exports:
//
//   - [Config] -- Validation, Limits and Output sections
//   - [Default] -- the built-in trusted configuration
//   - [Load], [LoadFile] and [Resolve] -- the loading entry points
//
// This package depends on no other cellcodec packages; cellctl
// converts its sections into codec options.
package config

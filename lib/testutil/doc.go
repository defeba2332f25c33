// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for cellcodec
// packages.
//
// [MustCell] and [Bits] build fixtures in one line, so that tests
// read as the tree or bit string they describe rather than as
// error-checking boilerplate. [RandomKeys] produces deterministic
// pseudo-random dictionary keys from a seed; the same seed yields the
// same keys on every run and platform.
//
// [TempFile] writes fixture bytes to a file under t.TempDir() for
// tests of file-reading code such as the cellctl commands.
//
// [RequireClosed] encapsulates the timeout safety valve pattern for
// concurrency tests: a select with a time.After fallback, so that a
// deadlock fails the test instead of hanging it.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error handling shared by the
// module's binaries: mapping the error a run function returns to a
// message on stderr and a process exit status.
package process

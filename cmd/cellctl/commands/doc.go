// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands implements the cellctl subcommands. [Root] binds
// the command tree to an [cli.Env] so that tests can run commands
// against in-memory streams.
package commands

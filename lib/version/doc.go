// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what build of cellctl is running.
//
// Release builds inject [Version], [GitCommit] and [BuildTime] with
// -ldflags -X, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/cellcodec/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without them, [Current] reads the revision and time the toolchain
// stamps into the binary.
package version

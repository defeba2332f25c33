// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind cellctl.
//
// A [Command] tree dispatches on the first positional argument,
// parses flags with pflag and suggests near misses for mistyped
// commands and flags. Flags are declared as tagged struct fields and
// bound with [FlagsFromParams]. Output helpers take explicit writers
// from an [Env] so that commands can be tested against buffers.
package cli

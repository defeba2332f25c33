// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/bureau-foundation/cellcodec/cmd/cellctl/cli"
	"github.com/bureau-foundation/cellcodec/cmd/cellctl/commands"
	"github.com/bureau-foundation/cellcodec/lib/process"
)

func main() {
	process.Exit(run())
}

func run() error {
	return commands.Root(cli.StandardEnv()).Execute(os.Args[1:])
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit ends the process according to err, the result of a binary's
// run function. A nil error returns. An error carrying an exit code
// (an ExitCode() int method anywhere in its chain) exits with that
// code silently, since the command has already reported. Anything
// else is printed as "error: ..." and exits 1.
func Exit(err error) {
	if err == nil {
		return
	}
	os.Exit(Code(os.Stderr, err))
}

// Code reports err on w as Exit would and returns the status Exit
// would use.
func Code(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

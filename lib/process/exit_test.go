// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }
func (e *codedError) ExitCode() int { return e.code }

func TestCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		output string
	}{
		{"nil", nil, 0, ""},
		{"plain", errors.New("bad magic"), 1, "error: bad magic\n"},
		{"coded", &codedError{code: 3}, 3, ""},
		{"wrapped coded", fmt.Errorf("validate: %w", &codedError{code: 2}), 2, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := Code(&stderr, test.err); got != test.code {
				t.Errorf("Code = %d, want %d", got, test.code)
			}
			if stderr.String() != test.output {
				t.Errorf("output = %q, want %q", stderr.String(), test.output)
			}
		})
	}
}

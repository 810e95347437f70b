// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return "handled" }
func (e exitCodeError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText string
	}{
		{"plain error", errors.New("descriptor not found"), 1, "error: descriptor not found\n"},
		{"exit code", exitCodeError{code: 3}, 3, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			if code := Report(&output, test.err); code != test.wantCode {
				t.Errorf("Report code = %d, want %d", code, test.wantCode)
			}
			if output.String() != test.wantText {
				t.Errorf("Report output = %q, want %q", output.String(), test.wantText)
			}
		})
	}
}

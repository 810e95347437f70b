// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal reports err on stderr and exits with the code Report returns.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}

// Report writes err to w in the form Fatal uses and returns the exit
// code for it: the error's own ExitCode when it has one, otherwise 1.
func Report(w io.Writer, err error) int {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
)

// ErrBodyTooLarge is returned by ReadLimited when the body exceeds
// the caller's limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// errorBodyLimit bounds how much of an error response is kept for a
// diagnostic message.
const errorBodyLimit = 4 << 10

// ReadLimited reads body completely, failing with ErrBodyTooLarge if
// it holds more than limit bytes. A non-positive limit disables the
// bound.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(body)
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// ErrorBody returns the first few kilobytes of an error response for
// use in an error message. Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	return string(data)
}

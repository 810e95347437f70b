// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

var (
	// ErrNotFound means the location holds no resource.
	ErrNotFound = errors.New("resource not found")

	// ErrIntegrity means the bytes do not match the declared digest.
	ErrIntegrity = errors.New("resource digest mismatch")

	// ErrTimeout means the fetch deadline expired.
	ErrTimeout = errors.New("fetch timed out")

	// ErrTooLarge means the resource exceeds the configured size limit.
	ErrTooLarge = errors.New("resource exceeds size limit")

	// ErrInsecure means the location uses a transport the fetcher is
	// not allowed to use.
	ErrInsecure = errors.New("insecure resource location")
)

// FetchError is the error every Fetcher in this package returns.
type FetchError struct {
	// Resource is the identity of the resource being fetched.
	Resource string

	// Location is the resolved location, when one was computed.
	Location string

	Cause error
}

func (e *FetchError) Error() string {
	if e.Location != "" && e.Location != e.Resource {
		return fmt.Sprintf("fetching %s from %s: %v", e.Resource, e.Location, e.Cause)
	}
	return fmt.Sprintf("fetching %s: %v", e.Resource, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// IsFetchError reports whether err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// Wrap returns err as a *FetchError for resource. An error that
// already is one is returned unchanged. A context deadline becomes
// ErrTimeout.
func Wrap(resource bundle.Resource, err error) error {
	if err == nil {
		return nil
	}
	var existing *FetchError
	if errors.As(err, &existing) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &FetchError{Resource: resource.Identity, Cause: err}
}

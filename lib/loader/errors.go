// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/webstart/lib/trust"
)

var (
	// ErrEntryMissing means the owning resource was fetched but its
	// archive has no entry for the requested name.
	ErrEntryMissing = errors.New("archive has no entry for name")

	// ErrInvalidArchive means the fetched bytes are not a readable
	// ZIP archive.
	ErrInvalidArchive = errors.New("resource is not a valid archive")

	// ErrNotResettable is returned by Reset for a record that is not
	// in the fetch-failed state.
	ErrNotResettable = errors.New("record cannot be reset")
)

// ClassNotFoundError reports a name that no resolved resource
// provides, or whose owning archive lacks it.
type ClassNotFoundError struct {
	Name string

	// Resource is the owning resource's identity when the index named
	// one.
	Resource string

	Cause error
}

func (e *ClassNotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("class not found: %s", e.Name)
	}
	return fmt.Sprintf("class not found: %s in %s: %v", e.Name, e.Resource, e.Cause)
}

func (e *ClassNotFoundError) Unwrap() error { return e.Cause }

// TrustDeniedError reports that the trust policy, or the user at the
// prompt, refused a resource. It is cached: later lookups into the
// resource return the same error without deciding again.
type TrustDeniedError struct {
	Resource string
	Decision trust.Decision
}

func (e *TrustDeniedError) Error() string {
	return fmt.Sprintf("loading %s refused: %s", e.Resource, e.Decision.Reason)
}

// IsClassNotFound reports whether err is or wraps a
// *ClassNotFoundError.
func IsClassNotFound(err error) bool {
	var target *ClassNotFoundError
	return errors.As(err, &target)
}

// IsTrustDenied reports whether err is or wraps a *TrustDeniedError.
func IsTrustDenied(err error) bool {
	var target *TrustDeniedError
	return errors.As(err, &target)
}

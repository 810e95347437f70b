// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"errors"
	"fmt"
)

// ManifestResourceError reports a structurally invalid declaration.
// Resolve returns every problem it finds, joined; use errors.As to
// reach an individual one.
type ManifestResourceError struct {
	// Position is the declaration's index in Manifest.Resources, or
	// -1 for a problem in the symbol index.
	Position int

	Identity string

	// Field names the offending attribute ("identity", "kind", "os",
	// "arch", "locale", "digest", "index").
	Field string

	Value  string
	Reason string
}

func (e *ManifestResourceError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("manifest index entry %q: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("manifest resource %d (%q): %s %q: %s",
		e.Position, e.Identity, e.Field, e.Value, e.Reason)
}

// IsManifestResourceError reports whether err is or wraps a
// *ManifestResourceError.
func IsManifestResourceError(err error) bool {
	var target *ManifestResourceError
	return errors.As(err, &target)
}

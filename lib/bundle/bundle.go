// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"
	"strings"
)

// Kind is what a resource archive contains.
type Kind uint8

const (
	// KindCode is a class archive (JAR).
	KindCode Kind = iota + 1
	// KindNative is an archive of platform shared libraries.
	KindNative
)

// String returns the descriptor spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindNative:
		return "native"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k == KindCode || k == KindNative
}

// ParseKind parses a kind name. "jar" and "nativelib" are accepted as
// the manifest element names they come from.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "code", "jar":
		return KindCode, nil
	case "native", "nativelib":
		return KindNative, nil
	default:
		return 0, fmt.Errorf("unknown resource kind %q", name)
	}
}

// SigningStatus is the outcome of verifying a resource's signatures.
// The zero value means verification could not determine a status.
type SigningStatus uint8

const (
	SigningUnknown SigningStatus = iota
	Unsigned
	SignedUntrusted
	SignedTrusted
)

// String returns the descriptor spelling of the status.
func (s SigningStatus) String() string {
	switch s {
	case SigningUnknown:
		return "unknown"
	case Unsigned:
		return "unsigned"
	case SignedUntrusted:
		return "signed-untrusted"
	case SignedTrusted:
		return "signed-trusted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Effective returns the status policy decisions use. A status that
// could not be determined counts as unsigned.
func (s SigningStatus) Effective() SigningStatus {
	switch s {
	case Unsigned, SignedUntrusted, SignedTrusted:
		return s
	default:
		return Unsigned
	}
}

// ParseSigningStatus parses a signing status name. The empty string
// parses as SigningUnknown.
func ParseSigningStatus(name string) (SigningStatus, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unknown":
		return SigningUnknown, nil
	case "unsigned":
		return Unsigned, nil
	case "signed-untrusted", "untrusted":
		return SignedUntrusted, nil
	case "signed-trusted", "signed", "trusted":
		return SignedTrusted, nil
	default:
		return SigningUnknown, fmt.Errorf("unknown signing status %q", name)
	}
}

// Conditions restricts a resource alternative to matching runtimes.
// An empty slice leaves that dimension unconditional; a slice with
// several values matches when any one of them matches.
type Conditions struct {
	OS     []string
	Arch   []string
	Locale []string
}

// Dimensions returns how many of the three dimensions are declared.
func (c Conditions) Dimensions() int {
	count := 0
	for _, values := range [][]string{c.OS, c.Arch, c.Locale} {
		if len(values) > 0 {
			count++
		}
	}
	return count
}

// IsEmpty reports whether the alternative is unconditional.
func (c Conditions) IsEmpty() bool {
	return c.Dimensions() == 0
}

// String renders the conditions for logs, e.g. "os=linux arch=amd64".
func (c Conditions) String() string {
	if c.IsEmpty() {
		return "unconditional"
	}
	var parts []string
	for _, dimension := range []struct {
		name   string
		values []string
	}{{"os", c.OS}, {"arch", c.Arch}, {"locale", c.Locale}} {
		if len(dimension.values) > 0 {
			parts = append(parts, dimension.name+"="+strings.Join(dimension.values, ","))
		}
	}
	return strings.Join(parts, " ")
}

// Resource is one declared resource alternative.
type Resource struct {
	// Identity is the logical resource name shared by all of its
	// alternatives (typically the archive href).
	Identity string

	Kind Kind

	// Location is where the bytes are fetched from. Empty means the
	// identity is itself the location. Relative locations are
	// resolved by the fetcher against the bundle codebase.
	Location string

	// Digest is the optional hex BLAKE3-256 digest of the archive.
	Digest string

	Conditions Conditions

	Signing SigningStatus
}

// FetchLocation returns Location, or Identity when no separate
// location is declared.
func (r Resource) FetchLocation() string {
	if r.Location != "" {
		return r.Location
	}
	return r.Identity
}

// IndexEntry maps a symbol name to the identity of the resource that
// provides it. A name ending in ".*" covers every class in that
// package and its subpackages.
type IndexEntry struct {
	Name     string
	Identity string
}

// IsPackage reports whether the entry is a package prefix entry.
func (e IndexEntry) IsPackage() bool {
	return strings.HasSuffix(e.Name, ".*")
}

// Manifest is the parsed bundle handed to the core.
type Manifest struct {
	Title string

	// Codebase is the base URL relative resource locations resolve
	// against. May be empty.
	Codebase string

	// Resources are the declared alternatives in declaration order.
	Resources []Resource

	Index []IndexEntry
}

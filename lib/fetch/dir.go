// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/netutil"
)

// DirFetcher reads resources from a directory tree. Relative
// locations are looked up under Root; file:// URLs are read as is.
// Other absolute URLs are mapped to Root/<host>/<path>, which lets a
// directory act as an offline mirror of one or more codebases.
type DirFetcher struct {
	Root string

	// MaxSize bounds the file size. Zero or negative is unbounded.
	MaxSize int64
}

// Path returns the file the resource is read from.
func (d DirFetcher) Path(resource bundle.Resource) (string, error) {
	location := resource.FetchLocation()
	parsed, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing location: %w", err)
	}

	var relative string
	switch {
	case parsed.Scheme == "file":
		return filepath.FromSlash(parsed.Path), nil
	case parsed.IsAbs():
		relative = filepath.Join(parsed.Host, filepath.FromSlash(parsed.Path))
	default:
		relative = filepath.FromSlash(parsed.Path)
	}
	relative = filepath.Clean(relative)
	if !filepath.IsLocal(relative) {
		return "", fmt.Errorf("%w: %q escapes the mirror root", ErrInsecure, location)
	}
	return filepath.Join(d.Root, relative), nil
}

// Fetch reads the resource file and verifies its declared digest.
func (d DirFetcher) Fetch(ctx context.Context, resource bundle.Resource) ([]byte, error) {
	path, err := d.Path(resource)
	if err != nil {
		return nil, &FetchError{Resource: resource.Identity, Cause: err}
	}
	fail := func(cause error) error {
		return &FetchError{Resource: resource.Identity, Location: path, Cause: cause}
	}
	if err := ctx.Err(); err != nil {
		return nil, Wrap(resource, err)
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fail(fmt.Errorf("%w: %w", ErrNotFound, err))
	}
	if err != nil {
		return nil, fail(err)
	}
	defer file.Close()

	data, err := netutil.ReadLimited(file, d.MaxSize)
	if errors.Is(err, netutil.ErrBodyTooLarge) {
		return nil, fail(fmt.Errorf("%w: %w", ErrTooLarge, err))
	}
	if err != nil {
		return nil, fail(err)
	}
	if err := VerifyDigest(resource, data); err != nil {
		return nil, fail(err)
	}
	return data, nil
}

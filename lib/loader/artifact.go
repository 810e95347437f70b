// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/fetch"
	"github.com/bureau-foundation/webstart/lib/resolve"
)

// Artifact is one extracted entry of a fetched resource. The engine
// returns the same *Artifact for every lookup of a name.
type Artifact struct {
	// Name is the name that was looked up.
	Name string

	Resource bundle.Resource
	Kind     bundle.Kind

	// Entry is the archive path the name was found at.
	Entry string

	Data []byte

	// Digest is the hex BLAKE3 digest of Data.
	Digest string
}

// EntryName returns the archive path a code name is stored under:
// "com.example.Main" is "com/example/Main.class". A name that already
// contains "/" is an archive path and is returned unchanged.
func EntryName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return strings.ReplaceAll(name, ".", "/") + ".class"
}

// NativeFileName returns the shared library file name for a native
// library name on the given OS.
func NativeFileName(name, goos string) string {
	canonical, _ := resolve.CanonicalOS(goos)
	switch canonical {
	case "windows":
		return name + ".dll"
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// locate finds the archive entry for name.
func locate(archive *zip.Reader, resource bundle.Resource, name, goos string) (*zip.File, error) {
	if resource.Kind == bundle.KindNative && !strings.Contains(name, "/") {
		want := NativeFileName(name, goos)
		for _, file := range archive.File {
			if path.Base(file.Name) == want && !file.FileInfo().IsDir() {
				return file, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrEntryMissing, want)
	}

	want := EntryName(name)
	for _, file := range archive.File {
		if file.Name == want {
			return file, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryMissing, want)
}

func extract(archive *zip.Reader, resource bundle.Resource, name, goos string) (*Artifact, error) {
	file, err := locate(archive, resource, name, goos)
	if err != nil {
		return nil, err
	}
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Name, err)
	}
	return &Artifact{
		Name:     name,
		Resource: resource,
		Kind:     resource.Kind,
		Entry:    file.Name,
		Data:     data,
		Digest:   fetch.Digest(data),
	}, nil
}

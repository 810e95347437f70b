// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundledef

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// Descriptor is the on-disk form of a bundle.
type Descriptor struct {
	Title     string               `json:"title"`
	Codebase  string               `json:"codebase"`
	Resources []ResourceDescriptor `json:"resources"`

	// Index maps symbol names (or "pkg.*" prefixes) to identities.
	Index map[string]string `json:"index"`
}

// ResourceDescriptor is one resource alternative.
type ResourceDescriptor struct {
	Identity string `json:"identity"`

	// Kind is "code" (or "jar") and "native" (or "nativelib"). Empty
	// means code.
	Kind string `json:"kind"`

	Location string `json:"location"`
	Digest   string `json:"digest"`

	OS     StringList `json:"os"`
	Arch   StringList `json:"arch"`
	Locale StringList `json:"locale"`

	// Signing is the verified signing status, as produced by the
	// signature verifier. Empty means undetermined.
	Signing string `json:"signing"`
}

// StringList unmarshals from either a JSON string or an array of
// strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// Parse strips JSONC comments and trailing commas from data and
// converts the descriptor into a Manifest. Index entries are sorted
// by name.
func Parse(data []byte) (*bundle.Manifest, error) {
	var descriptor Descriptor
	if err := json.Unmarshal(jsonc.ToJSON(data), &descriptor); err != nil {
		return nil, fmt.Errorf("parsing bundle descriptor: %w", err)
	}
	return descriptor.Manifest()
}

// Manifest converts the descriptor. Every unrepresentable field is
// reported, joined into one error.
func (d *Descriptor) Manifest() (*bundle.Manifest, error) {
	manifest := &bundle.Manifest{
		Title:    d.Title,
		Codebase: d.Codebase,
	}

	var problems []error
	for position, resource := range d.Resources {
		kind := bundle.KindCode
		if resource.Kind != "" {
			parsed, err := bundle.ParseKind(resource.Kind)
			if err != nil {
				problems = append(problems, fmt.Errorf("resources[%d] (%s): %w", position, resource.Identity, err))
			}
			kind = parsed
		}
		signing, err := bundle.ParseSigningStatus(resource.Signing)
		if err != nil {
			problems = append(problems, fmt.Errorf("resources[%d] (%s): %w", position, resource.Identity, err))
		}
		manifest.Resources = append(manifest.Resources, bundle.Resource{
			Identity: resource.Identity,
			Kind:     kind,
			Location: resource.Location,
			Digest:   resource.Digest,
			Conditions: bundle.Conditions{
				OS:     resource.OS,
				Arch:   resource.Arch,
				Locale: resource.Locale,
			},
			Signing: signing,
		})
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	names := make([]string, 0, len(d.Index))
	for name := range d.Index {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		manifest.Index = append(manifest.Index, bundle.IndexEntry{Name: name, Identity: d.Index[name]})
	}
	return manifest, nil
}

// ReadFile reads and parses a descriptor file.
func ReadFile(path string) (*bundle.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	manifest, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// Set is the resolved resource set for one launch. It is immutable
// and safe for concurrent reads.
type Set struct {
	runtime   bundle.Runtime
	entries   []Entry
	positions map[string]int // identity -> index into entries
	names     map[string]string
	packages  []packageEntry

	ambiguities []Ambiguity
}

// Entry is one resolved resource.
type Entry struct {
	Resource bundle.Resource

	// Position is the winning alternative's index in
	// Manifest.Resources.
	Position int
}

// Ambiguity records an identity whose winner tied, on a combined
// multi-dimension declaration, with a later alternative and won only
// by declaration order. The tie-break is well defined, but manifests
// that rely on it deserve a second look from whoever owns them.
type Ambiguity struct {
	Identity string
	Chosen   int
	Tied     []int
}

type packageEntry struct {
	prefix   string // includes the trailing "."
	identity string
}

// Resolve validates manifest and selects the most specific matching
// alternative of every identity for runtime. Invalid declarations fail
// the whole resolution with one or more *ManifestResourceError values
// joined together.
func Resolve(manifest bundle.Manifest, runtime bundle.Runtime) (*Set, error) {
	compiled, err := validate(manifest)
	if err != nil {
		return nil, err
	}

	env := newEnvironment(runtime)

	type choice struct {
		position int
		score    specificity
		tied     []int
	}
	chosen := make(map[string]*choice)

	for position, resource := range manifest.Resources {
		matched, score := compiled[position].match(env)
		if !matched {
			continue
		}
		current, seen := chosen[resource.Identity]
		switch {
		case !seen:
			chosen[resource.Identity] = &choice{position: position, score: score}
		case score.beats(current.score):
			*current = choice{position: position, score: score}
		case score == current.score:
			current.tied = append(current.tied, position)
		}
	}

	set := &Set{
		runtime:   runtime,
		positions: make(map[string]int, len(chosen)),
		names:     make(map[string]string),
	}

	winners := make([]int, 0, len(chosen))
	for identity, winner := range chosen {
		winners = append(winners, winner.position)
		if len(winner.tied) > 0 && winner.score.dimensions >= 2 {
			set.ambiguities = append(set.ambiguities, Ambiguity{
				Identity: identity,
				Chosen:   winner.position,
				Tied:     winner.tied,
			})
		}
	}
	sort.Ints(winners)
	sort.Slice(set.ambiguities, func(i, j int) bool {
		return set.ambiguities[i].Chosen < set.ambiguities[j].Chosen
	})

	for _, position := range winners {
		resource := manifest.Resources[position]
		set.positions[resource.Identity] = len(set.entries)
		set.entries = append(set.entries, Entry{Resource: resource, Position: position})
	}

	// Entries for unresolved identities stay in the tables so that a
	// name owned by an off-platform resource does not fall through to a
	// broader package entry.
	for _, entry := range manifest.Index {
		if entry.IsPackage() {
			set.packages = append(set.packages, packageEntry{
				prefix:   strings.TrimSuffix(entry.Name, "*"),
				identity: entry.Identity,
			})
			continue
		}
		set.names[entry.Name] = entry.Identity
	}
	sort.SliceStable(set.packages, func(i, j int) bool {
		return len(set.packages[i].prefix) > len(set.packages[j].prefix)
	})

	return set, nil
}

// validate checks every declaration and index entry, returning the
// compiled matchers in declaration order.
func validate(manifest bundle.Manifest) ([]matcher, error) {
	var problems []error
	report := func(position int, identity, field, value, reason string) {
		problems = append(problems, &ManifestResourceError{
			Position: position,
			Identity: identity,
			Field:    field,
			Value:    value,
			Reason:   reason,
		})
	}

	compiled := make([]matcher, len(manifest.Resources))
	kinds := make(map[string]bundle.Kind)

	for position, resource := range manifest.Resources {
		identity := resource.Identity
		if strings.TrimSpace(identity) == "" {
			report(position, identity, "identity", identity, "identity is required")
		}
		if !resource.Kind.Valid() {
			report(position, identity, "kind", resource.Kind.String(), "unknown resource kind")
		} else if previous, seen := kinds[identity]; seen && previous != resource.Kind {
			report(position, identity, "kind", resource.Kind.String(),
				"alternatives of one identity must share a kind (first declared "+previous.String()+")")
		} else if !seen {
			kinds[identity] = resource.Kind
		}
		if resource.Digest != "" {
			if decoded, err := hex.DecodeString(resource.Digest); err != nil || len(decoded) != 32 {
				report(position, identity, "digest", resource.Digest, "digest must be 64 hex characters")
			}
		}

		matcher, conditionProblems := compile(resource.Conditions)
		for _, problem := range conditionProblems {
			report(position, identity, problem.field, problem.value, problem.reason)
		}
		compiled[position] = matcher
	}

	owners := make(map[string]string)
	for _, entry := range manifest.Index {
		name := entry.Name
		switch {
		case strings.TrimSpace(name) == "" || name == ".*":
			report(-1, entry.Identity, "index", name, "symbol name is required")
			continue
		case strings.Contains(strings.TrimSuffix(name, ".*"), "*"):
			report(-1, entry.Identity, "index", name, "wildcards are only allowed as a trailing .*")
			continue
		}
		if _, declared := kinds[entry.Identity]; !declared {
			report(-1, entry.Identity, "index", name, "names undeclared resource "+entry.Identity)
			continue
		}
		if owner, seen := owners[name]; seen && owner != entry.Identity {
			report(-1, entry.Identity, "index", name, "already indexed to "+owner)
			continue
		}
		owners[name] = entry.Identity
	}

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return compiled, nil
}

// Runtime returns the runtime the set was resolved against.
func (s *Set) Runtime() bundle.Runtime { return s.runtime }

// Len returns the number of resolved resources.
func (s *Set) Len() int { return len(s.entries) }

// Entries returns the resolved resources in declaration order. The
// slice is a copy.
func (s *Set) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Resources returns the resolved resources in declaration order.
func (s *Set) Resources() []bundle.Resource {
	resources := make([]bundle.Resource, len(s.entries))
	for i, entry := range s.entries {
		resources[i] = entry.Resource
	}
	return resources
}

// Resource returns the resolved alternative for identity.
func (s *Set) Resource(identity string) (bundle.Resource, bool) {
	index, ok := s.positions[identity]
	if !ok {
		return bundle.Resource{}, false
	}
	return s.entries[index].Resource, true
}

// Owner returns the resolved resource that provides name. Exact index
// entries take precedence over package entries; among package entries
// the longest prefix wins. A name whose owner did not resolve for this
// runtime has no owner.
func (s *Set) Owner(name string) (bundle.Resource, bool) {
	if identity, ok := s.names[name]; ok {
		return s.Resource(identity)
	}
	for _, entry := range s.packages {
		if strings.HasPrefix(name, entry.prefix) {
			return s.Resource(entry.identity)
		}
	}
	return bundle.Resource{}, false
}

// Ambiguities returns the identities that were decided by declaration
// order between equally specific combined-condition alternatives.
func (s *Set) Ambiguities() []Ambiguity {
	return append([]Ambiguity(nil), s.ambiguities...)
}

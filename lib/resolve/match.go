// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// osAliases folds manifest and host OS spellings onto GOOS names.
var osAliases = map[string]string{
	"windows":   "windows",
	"win32":     "windows",
	"linux":     "linux",
	"darwin":    "darwin",
	"mac os x":  "darwin",
	"mac os":    "darwin",
	"macos":     "darwin",
	"osx":       "darwin",
	"freebsd":   "freebsd",
	"openbsd":   "openbsd",
	"netbsd":    "netbsd",
	"dragonfly": "dragonfly",
	"solaris":   "solaris",
	"sunos":     "solaris",
	"illumos":   "illumos",
	"aix":       "aix",
	"android":   "android",
}

// archAliases folds manifest and host architecture spellings onto
// GOARCH names.
var archAliases = map[string]string{
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"x86-64":  "amd64",
	"x64":     "amd64",
	"386":     "386",
	"x86":     "386",
	"i386":    "386",
	"i486":    "386",
	"i586":    "386",
	"i686":    "386",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"arm":     "arm",
	"armv7":   "arm",
	"armv7l":  "arm",
	"ppc64":   "ppc64",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"riscv64": "riscv64",
	"mips64":  "mips64",
	"loong64": "loong64",
}

// CanonicalOS returns the GOOS spelling of an OS name. Names that
// start with "windows " (e.g. "Windows 10") fold to "windows".
func CanonicalOS(name string) (string, bool) {
	folded := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := osAliases[folded]; ok {
		return canonical, true
	}
	if strings.HasPrefix(folded, "windows ") {
		return "windows", true
	}
	return folded, false
}

// CanonicalArch returns the GOARCH spelling of an architecture name.
func CanonicalArch(name string) (string, bool) {
	folded := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := archAliases[folded]; ok {
		return canonical, true
	}
	return folded, false
}

// locale is a parsed locale condition or runtime locale.
type locale struct {
	base      language.Base
	region    language.Region
	hasRegion bool
}

// parseLocale accepts BCP 47 tags and POSIX spellings such as
// "en_US.UTF-8" or "de_DE@euro".
func parseLocale(value string) (locale, error) {
	normalized := strings.TrimSpace(value)
	if index := strings.IndexAny(normalized, ".@"); index >= 0 {
		normalized = normalized[:index]
	}
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" {
		return locale{}, fmt.Errorf("empty locale")
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		return locale{}, err
	}
	base, confidence := tag.Base()
	if tag == language.Und || confidence == language.No {
		return locale{}, fmt.Errorf("locale has no language")
	}
	region, regionConfidence := tag.Region()
	return locale{
		base:      base,
		region:    region,
		hasRegion: regionConfidence == language.Exact,
	}, nil
}

// covers reports whether the condition value l accepts runtime locale
// target.
func (l locale) covers(target locale) bool {
	if l.base != target.base {
		return false
	}
	if !l.hasRegion {
		return true
	}
	return target.hasRegion && l.region == target.region
}

// specificity ranks a matching alternative. Higher wins.
type specificity struct {
	dimensions int
	// locale is 2 for a language+region match, 1 for language only,
	// 0 when the alternative declares no locale.
	locale int
}

func (s specificity) beats(other specificity) bool {
	if s.dimensions != other.dimensions {
		return s.dimensions > other.dimensions
	}
	return s.locale > other.locale
}

// matcher is a validated, canonicalized Conditions.
type matcher struct {
	os      []string
	arch    []string
	locales []locale
}

// conditionError is a single invalid condition value.
type conditionError struct {
	field  string
	value  string
	reason string
}

func compile(conditions bundle.Conditions) (matcher, []conditionError) {
	var compiled matcher
	var problems []conditionError

	for _, value := range conditions.OS {
		canonical, known := CanonicalOS(value)
		if !known {
			problems = append(problems, conditionError{"os", value, "unknown operating system"})
			continue
		}
		compiled.os = append(compiled.os, canonical)
	}
	for _, value := range conditions.Arch {
		canonical, known := CanonicalArch(value)
		if !known {
			problems = append(problems, conditionError{"arch", value, "unknown architecture"})
			continue
		}
		compiled.arch = append(compiled.arch, canonical)
	}
	for _, value := range conditions.Locale {
		parsed, err := parseLocale(value)
		if err != nil {
			problems = append(problems, conditionError{"locale", value, err.Error()})
			continue
		}
		compiled.locales = append(compiled.locales, parsed)
	}
	return compiled, problems
}

// environment is a canonicalized bundle.Runtime.
type environment struct {
	os        string
	arch      string
	locale    locale
	hasLocale bool
}

func newEnvironment(runtime bundle.Runtime) environment {
	env := environment{}
	env.os, _ = CanonicalOS(runtime.OS)
	env.arch, _ = CanonicalArch(runtime.Arch)
	if parsed, err := parseLocale(runtime.Locale); err == nil {
		env.locale = parsed
		env.hasLocale = true
	}
	return env
}

func (m matcher) match(env environment) (bool, specificity) {
	var score specificity

	if len(m.os) > 0 {
		if !containsFold(m.os, env.os) {
			return false, score
		}
		score.dimensions++
	}
	if len(m.arch) > 0 {
		if !containsFold(m.arch, env.arch) {
			return false, score
		}
		score.dimensions++
	}
	if len(m.locales) > 0 {
		if !env.hasLocale {
			return false, score
		}
		best := 0
		for _, candidate := range m.locales {
			if !candidate.covers(env.locale) {
				continue
			}
			rank := 1
			if candidate.hasRegion {
				rank = 2
			}
			best = max(best, rank)
		}
		if best == 0 {
			return false, score
		}
		score.dimensions++
		score.locale = best
	}
	return true, score
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// Matches reports whether an alternative with the given conditions
// applies to runtime. Invalid condition values never match; Resolve
// reports them as errors instead.
func Matches(conditions bundle.Conditions, runtime bundle.Runtime) bool {
	compiled, problems := compile(conditions)
	if len(problems) > 0 {
		return false
	}
	matched, _ := compiled.match(newEnvironment(runtime))
	return matched
}

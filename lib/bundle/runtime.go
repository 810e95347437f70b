// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"os"
	"runtime"
)

// Runtime is the environment a launch resolves resources against.
// Values are raw; lib/resolve canonicalizes them when matching.
type Runtime struct {
	OS     string
	Arch   string
	Locale string
}

// CurrentRuntime describes the host process.
func CurrentRuntime() Runtime {
	return Runtime{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		Locale: LocaleFromEnvironment(os.Getenv),
	}
}

// LocaleFromEnvironment returns the message locale following the POSIX
// precedence LC_ALL, LC_MESSAGES, LANG. The "C" and "POSIX" locales
// carry no language and yield "".
func LocaleFromEnvironment(getenv func(string) string) string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := getenv(name)
		if value == "" {
			continue
		}
		if value == "C" || value == "POSIX" || value == "C.UTF-8" {
			return ""
		}
		return value
	}
	return ""
}

// WithOverrides returns r with every non-empty field of overrides
// applied.
func (r Runtime) WithOverrides(overrides Runtime) Runtime {
	if overrides.OS != "" {
		r.OS = overrides.OS
	}
	if overrides.Arch != "" {
		r.Arch = overrides.Arch
	}
	if overrides.Locale != "" {
		r.Locale = overrides.Locale
	}
	return r
}

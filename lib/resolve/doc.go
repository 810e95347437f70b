// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolve selects, for one runtime, the resource alternatives
// a launch may load.
//
// [Matches] is the condition matcher: an alternative matches when
// every dimension it declares (os, arch, locale) matches the runtime.
// OS and architecture names are compared case-insensitively after
// folding aliases ("Mac OS X" and "darwin", "x86_64" and "amd64").
// Locales are BCP 47 tags; a language-only value matches any region of
// that language, a language+region value matches only that pair.
//
// [Resolve] runs once per launch. It validates every declaration,
// groups alternatives by identity, and keeps the most specific
// matching alternative per identity:
//
//  1. more declared dimensions wins;
//  2. then the more specific matching locale (language+region, then
//     language, then none);
//  3. then the earlier declaration.
//
// Identities with no matching alternative are left out. The resulting
// [Set] preserves declaration order among the winners and is
// read-only, so the loader can consult it from any goroutine without
// locking.
package resolve

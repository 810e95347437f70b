// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// Level is the launch-wide security level, ordered from most to least
// restrictive.
type Level uint8

const (
	// DenyAll refuses every resource, signed or not.
	DenyAll Level = iota
	// DenyUnsigned admits only resources signed by a trusted signer.
	DenyUnsigned
	// AskUnsigned admits trusted resources and asks about the rest.
	AskUnsigned
	// AllowUnsigned admits everything.
	AllowUnsigned
)

// Default is the level used when configuration names none.
func Default() Level { return AskUnsigned }

// Levels returns every level from most to least restrictive.
func Levels() []Level {
	return []Level{DenyAll, DenyUnsigned, AskUnsigned, AllowUnsigned}
}

// String returns the canonical configuration spelling.
func (l Level) String() string {
	switch l {
	case DenyAll:
		return "DENY_ALL"
	case DenyUnsigned:
		return "DENY_UNSIGNED"
	case AskUnsigned:
		return "ASK_UNSIGNED"
	case AllowUnsigned:
		return "ALLOW_UNSIGNED"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Valid reports whether l is one of the four declared levels.
func (l Level) Valid() bool { return l <= AllowUnsigned }

// MoreRestrictive reports whether l refuses at least everything other
// refuses.
func (l Level) MoreRestrictive(other Level) bool { return l < other }

var levelNames = map[string]Level{
	"deny_all":       DenyAll,
	"deny_unsigned":  DenyUnsigned,
	"ask_unsigned":   AskUnsigned,
	"allow_unsigned": AllowUnsigned,

	// Names used by older launcher deployment files.
	"very_high": DenyUnsigned,
	"high":      AskUnsigned,
	"medium":    AllowUnsigned,
}

// ParseLevel parses a level name case-insensitively. Hyphens and
// underscores are interchangeable.
func ParseLevel(name string) (Level, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if level, ok := levelNames[key]; ok {
		return level, nil
	}
	return 0, fmt.Errorf("unknown security level %q (valid: DENY_ALL, DENY_UNSIGNED, ASK_UNSIGNED, ALLOW_UNSIGNED)", name)
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be
// read directly from configuration.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid security level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

var explanations = map[Level]string{
	DenyAll:       "No resources are loaded, whether signed or not.",
	DenyUnsigned:  "Only resources signed by a trusted signer are loaded.",
	AskUnsigned:   "Trusted resources load silently; you are asked once about each unsigned or untrusted resource.",
	AllowUnsigned: "Every resource is loaded without asking, signed or not.",
}

// Explanation returns display text describing what l does.
func Explanation(l Level) string {
	if text, ok := explanations[l]; ok {
		return text
	}
	return "Unknown security level."
}

// Outcome is the result of the pure decision table.
type Outcome uint8

const (
	Deny Outcome = iota
	Allow
	Ask
)

func (o Outcome) String() string {
	switch o {
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	case Ask:
		return "ask"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Evaluate applies the decision table. An undeterminable signing
// status is treated as unsigned; an invalid level denies.
func Evaluate(level Level, signing bundle.SigningStatus) Outcome {
	signing = signing.Effective()
	switch level {
	case AllowUnsigned:
		return Allow
	case AskUnsigned:
		if signing == bundle.SignedTrusted {
			return Allow
		}
		return Ask
	case DenyUnsigned:
		if signing == bundle.SignedTrusted {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}

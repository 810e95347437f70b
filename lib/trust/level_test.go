// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trust

import (
	"testing"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

func TestEvaluateTable(t *testing.T) {
	tests := []struct {
		level   Level
		signing bundle.SigningStatus
		want    Outcome
	}{
		{DenyAll, bundle.SignedTrusted, Deny},
		{DenyAll, bundle.SignedUntrusted, Deny},
		{DenyAll, bundle.Unsigned, Deny},
		{DenyUnsigned, bundle.SignedTrusted, Allow},
		{DenyUnsigned, bundle.SignedUntrusted, Deny},
		{DenyUnsigned, bundle.Unsigned, Deny},
		{AskUnsigned, bundle.SignedTrusted, Allow},
		{AskUnsigned, bundle.SignedUntrusted, Ask},
		{AskUnsigned, bundle.Unsigned, Ask},
		{AllowUnsigned, bundle.SignedTrusted, Allow},
		{AllowUnsigned, bundle.SignedUntrusted, Allow},
		{AllowUnsigned, bundle.Unsigned, Allow},

		// Undeterminable status is treated as unsigned.
		{DenyUnsigned, bundle.SigningUnknown, Deny},
		{AskUnsigned, bundle.SigningUnknown, Ask},

		{Level(99), bundle.SignedTrusted, Deny},
	}
	for _, test := range tests {
		if got := Evaluate(test.level, test.signing); got != test.want {
			t.Errorf("Evaluate(%s, %s) = %s, want %s", test.level, test.signing, got, test.want)
		}
	}
}

func TestEvaluateMonotonic(t *testing.T) {
	// Raising restriction never turns a deny into an allow.
	rank := map[Outcome]int{Deny: 0, Ask: 1, Allow: 2}
	signings := []bundle.SigningStatus{bundle.SigningUnknown, bundle.Unsigned, bundle.SignedUntrusted, bundle.SignedTrusted}
	levels := Levels()
	for _, signing := range signings {
		for i := 1; i < len(levels); i++ {
			stricter := Evaluate(levels[i-1], signing)
			looser := Evaluate(levels[i], signing)
			if rank[stricter] > rank[looser] {
				t.Errorf("%s gives %s for %s but looser %s gives %s",
					levels[i-1], stricter, signing, levels[i], looser)
			}
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"DENY_ALL", DenyAll},
		{"deny-unsigned", DenyUnsigned},
		{"Ask_Unsigned", AskUnsigned},
		{" allow_unsigned ", AllowUnsigned},
		{"VERY_HIGH", DenyUnsigned},
		{"high", AskUnsigned},
		{"Medium", AllowUnsigned},
	}
	for _, test := range tests {
		got, err := ParseLevel(test.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", test.input, got, test.want)
		}
	}

	if _, err := ParseLevel("paranoid"); err == nil {
		t.Error("ParseLevel(paranoid) succeeded")
	}
}

func TestLevelText(t *testing.T) {
	for _, level := range Levels() {
		text, err := level.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", level, err)
		}
		var parsed Level
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if parsed != level {
			t.Errorf("round trip of %s gave %s", level, parsed)
		}
		if Explanation(level) == Explanation(Level(42)) {
			t.Errorf("%s has no explanation", level)
		}
	}
	if Default() != AskUnsigned {
		t.Errorf("Default() = %s, want ASK_UNSIGNED", Default())
	}
	if !DenyAll.MoreRestrictive(AskUnsigned) || AllowUnsigned.MoreRestrictive(DenyUnsigned) {
		t.Error("MoreRestrictive does not follow the level order")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "testing"

func TestEntryName(t *testing.T) {
	tests := map[string]string{
		"com.example.Main":        "com/example/Main.class",
		"Main":                    "Main.class",
		"com.example.Outer$Inner": "com/example/Outer$Inner.class",
		"META-INF/MANIFEST.MF":    "META-INF/MANIFEST.MF",
	}
	for name, want := range tests {
		if got := EntryName(name); got != want {
			t.Errorf("EntryName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNativeFileName(t *testing.T) {
	tests := []struct {
		os   string
		want string
	}{
		{"linux", "libfoo.so"},
		{"freebsd", "libfoo.so"},
		{"darwin", "libfoo.dylib"},
		{"Mac OS X", "libfoo.dylib"},
		{"windows", "foo.dll"},
		{"Windows 11", "foo.dll"},
	}
	for _, test := range tests {
		if got := NativeFileName("foo", test.os); got != test.want {
			t.Errorf("NativeFileName(foo, %q) = %q, want %q", test.os, got, test.want)
		}
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestReadLimited(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		data, err := ReadLimited(strings.NewReader("PK\x03\x04"), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "PK\x03\x04" {
			t.Fatalf("got %q", data)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadLimited(bytes.NewReader(make([]byte, 5)), 4)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("err = %v, want ErrBodyTooLarge", err)
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		data, err := ReadLimited(bytes.NewReader(make([]byte, 1<<16)), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 1<<16 {
			t.Fatalf("read %d bytes, want %d", len(data), 1<<16)
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if _, err := ReadLimited(failReader{}, 10); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestErrorBodyTruncates(t *testing.T) {
	body := ErrorBody(strings.NewReader(strings.Repeat("x", errorBodyLimit*2)))
	if len(body) != errorBodyLimit {
		t.Errorf("len = %d, want %d", len(body), errorBodyLimit)
	}
	if ErrorBody(failReader{}) != "" {
		t.Error("ErrorBody of failing reader should be empty")
	}
}

func TestIsLoopbackURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"http://127.0.0.1/", true},
		{"https://127.34.123.43/", true},
		{"https://127.255.255.254", true},
		{"http://[::1]/", true},
		{"https://[::1]:8443/app.jnlp", true},
		{"http://localhost:8080/core.jar", true},
		{"http://LOCALHOST/", true},
		{"https://0.0.0.0/", false},
		{"https://0.0.0.0/8", false},
		{"https://192.168.0.123/", false},
		{"https://example.com/", false},
		{"http://[::ffff:127.0.0.1]/", true},
	}
	for _, test := range tests {
		parsed, err := url.Parse(test.raw)
		if err != nil {
			t.Fatalf("url.Parse(%q): %v", test.raw, err)
		}
		if got := IsLoopbackURL(parsed); got != test.want {
			t.Errorf("IsLoopbackURL(%q) = %v, want %v", test.raw, got, test.want)
		}
	}
	if IsLoopbackURL(nil) {
		t.Error("IsLoopbackURL(nil) should be false")
	}
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

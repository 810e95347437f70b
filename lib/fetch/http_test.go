// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/app/core.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("core archive bytes"))
	})
	mux.HandleFunc("/app/big.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	})
	mux.HandleFunc("/app/gone.jar", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/app/broken.jar", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	})
	mux.HandleFunc("/app/slow.jar", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newHTTPFetcher(t *testing.T, config HTTPConfig) *HTTPFetcher {
	t.Helper()
	fetcher, err := NewHTTPFetcher(config)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	return fetcher
}

func TestHTTPFetcherRelativeLocation(t *testing.T) {
	server := newTestServer(t)
	fetcher := newHTTPFetcher(t, HTTPConfig{BaseURL: server.URL + "/app/"})

	data, err := fetcher.Fetch(context.Background(), bundle.Resource{Identity: "core.jar"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "core archive bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestHTTPFetcherVerifiesDigest(t *testing.T) {
	server := newTestServer(t)
	fetcher := newHTTPFetcher(t, HTTPConfig{BaseURL: server.URL + "/app/"})

	good := bundle.Resource{Identity: "core.jar", Digest: Digest([]byte("core archive bytes"))}
	if _, err := fetcher.Fetch(context.Background(), good); err != nil {
		t.Fatalf("Fetch with matching digest: %v", err)
	}

	bad := bundle.Resource{Identity: "core.jar", Digest: Digest([]byte("something else"))}
	_, err := fetcher.Fetch(context.Background(), bad)
	if !errors.Is(err, ErrIntegrity) || !IsFetchError(err) {
		t.Errorf("err = %v, want FetchError wrapping ErrIntegrity", err)
	}
}

func TestHTTPFetcherErrors(t *testing.T) {
	server := newTestServer(t)
	tests := []struct {
		name     string
		config   HTTPConfig
		location string
		want     error
	}{
		{"missing", HTTPConfig{}, server.URL + "/app/missing.jar", ErrNotFound},
		{"gone", HTTPConfig{}, server.URL + "/app/gone.jar", ErrNotFound},
		{"too large", HTTPConfig{MaxSize: 1024}, server.URL + "/app/big.jar", ErrTooLarge},
		{"insecure", HTTPConfig{}, "http://downloads.example.com/app.jar", ErrInsecure},
		{"bad scheme", HTTPConfig{}, "ftp://downloads.example.com/app.jar", ErrInsecure},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fetcher := newHTTPFetcher(t, test.config)
			_, err := fetcher.Fetch(context.Background(), bundle.Resource{Identity: "r.jar", Location: test.location})
			var fetchError *FetchError
			if !errors.As(err, &fetchError) {
				t.Fatalf("err = %v, want *FetchError", err)
			}
			if fetchError.Resource != "r.jar" {
				t.Errorf("Resource = %q, want r.jar", fetchError.Resource)
			}
			if !errors.Is(err, test.want) {
				t.Errorf("err = %v, want %v", err, test.want)
			}
		})
	}
}

func TestHTTPFetcherServerErrorIncludesBody(t *testing.T) {
	server := newTestServer(t)
	fetcher := newHTTPFetcher(t, HTTPConfig{})
	_, err := fetcher.Fetch(context.Background(), bundle.Resource{Identity: server.URL + "/app/broken.jar"})
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") || !strings.Contains(err.Error(), "backend exploded") {
		t.Errorf("err = %v, want HTTP 500 with body", err)
	}
}

func TestHTTPFetcherDeadline(t *testing.T) {
	server := newTestServer(t)
	fetcher := newHTTPFetcher(t, HTTPConfig{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := fetcher.Fetch(ctx, bundle.Resource{Identity: server.URL + "/app/slow.jar"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestHTTPFetcherLocate(t *testing.T) {
	fetcher := newHTTPFetcher(t, HTTPConfig{BaseURL: "https://apps.example.com/suite/"})
	tests := []struct {
		location string
		want     string
	}{
		{"lib/core.jar", "https://apps.example.com/suite/lib/core.jar"},
		{"../shared/util.jar", "https://apps.example.com/shared/util.jar"},
		{"https://cdn.example.net/x.jar", "https://cdn.example.net/x.jar"},
		{"http://localhost:8080/dev.jar", "http://localhost:8080/dev.jar"},
		{"http://[::1]/dev.jar", "http://[::1]/dev.jar"},
	}
	for _, test := range tests {
		got, err := fetcher.Locate(bundle.Resource{Identity: test.location})
		if err != nil {
			t.Errorf("Locate(%q): %v", test.location, err)
			continue
		}
		if got.String() != test.want {
			t.Errorf("Locate(%q) = %s, want %s", test.location, got, test.want)
		}
	}

	insecure := newHTTPFetcher(t, HTTPConfig{AllowInsecure: true})
	if _, err := insecure.Locate(bundle.Resource{Identity: "http://downloads.example.com/a.jar"}); err != nil {
		t.Errorf("AllowInsecure fetcher refused plain http: %v", err)
	}
	if _, err := insecure.Locate(bundle.Resource{Identity: "relative.jar"}); err == nil {
		t.Error("relative location without a codebase resolved")
	}
}

func TestNewHTTPFetcherRejectsRelativeBase(t *testing.T) {
	if _, err := NewHTTPFetcher(HTTPConfig{BaseURL: "apps/suite"}); err == nil {
		t.Error("NewHTTPFetcher accepted a relative base URL")
	}
}

// redirectTransport answers every request to from with a redirect to
// target and serves body for every other URL, recording what it sees.
type redirectTransport struct {
	from   string
	target string
	body   string

	mu        sync.Mutex
	requested []string
}

func (r *redirectTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.requested = append(r.requested, request.URL.String())
	r.mu.Unlock()

	response := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    request,
	}
	if request.URL.String() == r.from {
		response.StatusCode = http.StatusFound
		response.Header.Set("Location", r.target)
		response.Body = io.NopCloser(strings.NewReader(""))
	}
	return response, nil
}

func TestHTTPFetcherRedirects(t *testing.T) {
	const origin = "https://apps.example.com/app/core.jar"
	tests := []struct {
		name          string
		target        string
		allowInsecure bool
		want          error
	}{
		{"to plain http", "http://mirror.example.com/core.jar", false, ErrInsecure},
		{"to unsupported scheme", "ftp://mirror.example.com/core.jar", false, ErrInsecure},
		{"to https", "https://cdn.example.com/core.jar", false, nil},
		{"to plain http when allowed", "http://mirror.example.com/core.jar", true, nil},
		{"to loopback http", "http://127.0.0.1:8080/core.jar", false, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			transport := &redirectTransport{from: origin, target: test.target, body: "mirrored bytes"}
			fetcher := newHTTPFetcher(t, HTTPConfig{
				Client:        &http.Client{Transport: transport},
				BaseURL:       "https://apps.example.com/app/",
				AllowInsecure: test.allowInsecure,
			})

			data, err := fetcher.Fetch(context.Background(), bundle.Resource{Identity: "core.jar"})
			if test.want == nil {
				if err != nil {
					t.Fatalf("Fetch: %v", err)
				}
				if string(data) != "mirrored bytes" {
					t.Errorf("data = %q", data)
				}
				return
			}
			if !errors.Is(err, test.want) || !IsFetchError(err) {
				t.Fatalf("err = %v, want *FetchError wrapping %v", err, test.want)
			}
			transport.mu.Lock()
			defer transport.mu.Unlock()
			for _, requested := range transport.requested {
				if requested == test.target {
					t.Errorf("refused redirect target %s was requested", test.target)
				}
			}
		})
	}
}

func TestHTTPFetcherKeepsCallerRedirectPolicy(t *testing.T) {
	transport := &redirectTransport{
		from:   "https://apps.example.com/app/core.jar",
		target: "https://cdn.example.com/core.jar",
		body:   "mirrored bytes",
	}
	stop := errors.New("no redirects")
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return stop
		},
	}
	fetcher := newHTTPFetcher(t, HTTPConfig{Client: client, BaseURL: "https://apps.example.com/app/"})

	if _, err := fetcher.Fetch(context.Background(), bundle.Resource{Identity: "core.jar"}); !errors.Is(err, stop) {
		t.Errorf("err = %v, want the client's own redirect error", err)
	}
	if client.CheckRedirect == nil {
		t.Error("caller's client was modified")
	}
}

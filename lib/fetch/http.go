// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/clock"
	"github.com/bureau-foundation/webstart/lib/netutil"
)

// maxRedirects matches net/http's default redirect limit.
const maxRedirects = 10

// HTTPConfig holds the parameters for NewHTTPFetcher.
type HTTPConfig struct {
	// Client sends the requests. Nil uses a client with no overall
	// timeout; deadlines come from the caller's context. The fetcher
	// uses a copy whose CheckRedirect applies the same scheme rules
	// as the first request before any CheckRedirect of its own.
	Client *http.Client

	// BaseURL is the bundle codebase relative locations resolve
	// against. Empty means every location must be absolute.
	BaseURL string

	// MaxSize bounds the response body. Zero or negative is unbounded.
	MaxSize int64

	// AllowInsecure permits plain http to non-loopback hosts.
	AllowInsecure bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// HTTPFetcher downloads resources over HTTP(S). It is safe for
// concurrent use.
type HTTPFetcher struct {
	client        *http.Client
	base          *url.URL
	maxSize       int64
	allowInsecure bool
	clock         clock.Clock
	logger        *slog.Logger
}

// NewHTTPFetcher validates config and returns a fetcher.
func NewHTTPFetcher(config HTTPConfig) (*HTTPFetcher, error) {
	fetcher := &HTTPFetcher{
		maxSize:       config.MaxSize,
		allowInsecure: config.AllowInsecure,
		clock:         clock.OrReal(config.Clock),
		logger:        config.Logger,
	}
	client := &http.Client{}
	if config.Client != nil {
		copied := *config.Client
		client = &copied
	}
	next := client.CheckRedirect
	client.CheckRedirect = func(request *http.Request, via []*http.Request) error {
		if err := fetcher.permit(request.URL); err != nil {
			return fmt.Errorf("redirect to %s: %w", request.URL.Redacted(), err)
		}
		if next != nil {
			return next(request, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	fetcher.client = client
	if fetcher.logger == nil {
		fetcher.logger = slog.New(slog.DiscardHandler)
	}
	if config.BaseURL != "" {
		base, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL %q: %w", config.BaseURL, err)
		}
		if !base.IsAbs() {
			return nil, fmt.Errorf("base URL %q is not absolute", config.BaseURL)
		}
		fetcher.base = base
	}
	return fetcher, nil
}

// Locate returns the absolute URL the resource is fetched from.
func (f *HTTPFetcher) Locate(resource bundle.Resource) (*url.URL, error) {
	location, err := url.Parse(resource.FetchLocation())
	if err != nil {
		return nil, fmt.Errorf("parsing location: %w", err)
	}
	if !location.IsAbs() {
		if f.base == nil {
			return nil, fmt.Errorf("relative location %q with no codebase", resource.FetchLocation())
		}
		location = f.base.ResolveReference(location)
	}
	if err := f.permit(location); err != nil {
		return nil, err
	}
	return location, nil
}

// permit applies the scheme rules to a request URL: https always,
// plain http only to loopback hosts unless AllowInsecure is set.
func (f *HTTPFetcher) permit(location *url.URL) error {
	switch location.Scheme {
	case "https":
		return nil
	case "http":
		if !f.allowInsecure && !netutil.IsLoopbackURL(location) {
			return fmt.Errorf("%w: plain http to %s", ErrInsecure, location.Host)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInsecure, location.Scheme)
	}
}

// Fetch downloads the resource and verifies its declared digest.
func (f *HTTPFetcher) Fetch(ctx context.Context, resource bundle.Resource) ([]byte, error) {
	location, err := f.Locate(resource)
	if err != nil {
		return nil, &FetchError{Resource: resource.Identity, Cause: err}
	}
	fail := func(cause error) error {
		return &FetchError{Resource: resource.Identity, Location: location.String(), Cause: cause}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location.String(), nil)
	if err != nil {
		return nil, fail(err)
	}

	start := f.clock.Now()
	response, err := f.client.Do(request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(fmt.Errorf("%w: %w", ErrTimeout, err))
		}
		return nil, fail(err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone:
		return nil, fail(fmt.Errorf("%w (HTTP %d)", ErrNotFound, response.StatusCode))
	case response.StatusCode != http.StatusOK:
		return nil, fail(fmt.Errorf("HTTP %d: %s", response.StatusCode, netutil.ErrorBody(response.Body)))
	}
	if f.maxSize > 0 && response.ContentLength > f.maxSize {
		return nil, fail(fmt.Errorf("%w: Content-Length %d exceeds %d", ErrTooLarge, response.ContentLength, f.maxSize))
	}

	data, err := netutil.ReadLimited(response.Body, f.maxSize)
	switch {
	case errors.Is(err, netutil.ErrBodyTooLarge):
		return nil, fail(fmt.Errorf("%w: %w", ErrTooLarge, err))
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fail(fmt.Errorf("%w: %w", ErrTimeout, err))
	case err != nil:
		return nil, fail(fmt.Errorf("reading response: %w", err))
	}
	if err := VerifyDigest(resource, data); err != nil {
		return nil, fail(err)
	}

	f.logger.Debug("resource downloaded",
		"resource", resource.Identity,
		"url", location.String(),
		"size", len(data),
		"duration", f.clock.Now().Sub(start),
	)
	return data, nil
}

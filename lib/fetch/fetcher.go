// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"

	"github.com/bureau-foundation/webstart/lib/bundle"
)

// Fetcher retrieves the bytes of one resource archive. Implementations
// return a *FetchError on failure and must be safe for concurrent
// calls on different resources.
type Fetcher interface {
	Fetch(ctx context.Context, resource bundle.Resource) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, resource bundle.Resource) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, resource bundle.Resource) ([]byte, error) {
	return f(ctx, resource)
}

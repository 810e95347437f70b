// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch retrieves resource archive bytes.
//
// [Fetcher] is the boundary the lazy loader calls. The package
// provides three implementations that compose:
//
//   - [HTTPFetcher] downloads from the bundle codebase. Plain http is
//     refused unless the host is a loopback address or the fetcher is
//     configured to allow it.
//   - [DirFetcher] reads from a local directory tree (mirrors, tests).
//   - [Cache] wraps another Fetcher with an on-disk cache. A hit is
//     served with no upstream call. Entries are optionally compressed
//     at rest (lz4 or zstd) and carry a CBOR metadata sidecar holding
//     the BLAKE3 digest of the content, which is checked on every read.
//
// Every failure is a [*FetchError] whose cause can be matched with
// errors.Is against [ErrNotFound], [ErrIntegrity], [ErrTimeout],
// [ErrTooLarge], or [ErrInsecure]. Nothing in this package retries; the
// loader records a failure as terminal.
//
// Fetchers do not deduplicate concurrent requests for the same
// resource. The loader guarantees at most one in-flight fetch per
// resource.
package fetch

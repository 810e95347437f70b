// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single place the launcher configures CBOR.
//
// The fetch cache writes a small metadata sidecar next to every cached
// resource body. Sidecars are encoded with Core Deterministic Encoding
// (RFC 8949 §4.2) so that the same entry always serializes to the same
// bytes, and decoded leniently so that older launchers can read
// sidecars written by newer ones.
package codec

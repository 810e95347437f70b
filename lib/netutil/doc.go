// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the small network helpers the HTTP fetcher
// needs: bounded body reads and loopback detection.
//
// Resource bodies are read through [ReadLimited] so that a server
// advertising a small archive cannot stream an unbounded one. Error
// bodies go through [ErrorBody], which never fails.
//
// [IsLoopbackURL] decides whether a plain-HTTP location is acceptable
// without the insecure-transport opt-in: "localhost", any address in
// 127.0.0.0/8, and ::1 qualify. The unspecified address 0.0.0.0 does
// not.
package netutil

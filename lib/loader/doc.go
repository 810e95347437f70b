// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loader materializes resources on demand.
//
// An [Engine] is built from a resolved resource set. Nothing is
// fetched up front. [Engine.ResolveSymbol] maps a class or native
// library name to the resource that provides it, obtains a trust
// verdict for that resource, fetches its archive, and extracts the
// named entry as an [Artifact].
//
// Each resolved resource has one record that moves through
//
//	not-started -> fetch-in-progress -> fetched | fetch-failed
//	not-started -> trust-denied
//
// and never moves backwards except through [Engine.Reset], which
// returns a fetch-failed record to not-started. The first lookup into
// a resource starts a flight (trust decision, then fetch) that runs
// detached from any caller. Every concurrent and later lookup waits
// for the same flight, so a resource is fetched at most once and its
// ask prompt is shown at most once. Lookups into different resources
// never wait on each other.
//
// A caller whose context ends stops waiting; the flight continues and
// its result is kept for the next caller. Flights are bounded by
// [Config.FetchTimeout]; an expired flight settles as fetch-failed
// with [fetch.ErrTimeout].
package loader

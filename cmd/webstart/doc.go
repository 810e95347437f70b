// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Webstart resolves a bundle descriptor for the host and loads names
// from it on demand.
//
// Usage:
//
//	webstart resolve <descriptor>
//	webstart load <descriptor> <name>...
//	webstart levels
//	webstart cache list|clear
//
// Configuration comes from the YAML file named by --config or
// WEBSTART_CONFIG; with neither, built-in defaults apply. Resources
// are fetched from the bundle codebase (or fetch.base_url), or read
// from the descriptor's directory when no codebase is known, and kept
// in the local cache. Unsigned resources are confirmed on the
// controlling terminal; without a terminal the answer is no.
package main

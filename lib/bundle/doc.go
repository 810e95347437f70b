// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle defines the typed view of an application bundle that
// the launcher core consumes: the declared [Resource] alternatives,
// the symbol [IndexEntry] table, and the [Runtime] a launch resolves
// against.
//
// Values in this package are produced once by a manifest front end
// (lib/bundledef for descriptor files) and treated as immutable by the
// resolver, trust engine, and loader.
//
// A resource identity may be declared several times with different
// [Conditions]; those declarations are alternatives for the same
// logical resource, and lib/resolve picks at most one of them.
package bundle

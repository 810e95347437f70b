// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package trust decides whether a resource may be loaded.
//
// The decision depends on two inputs: the launch's security [Level],
// fixed when the [Engine] is constructed, and the resource's
// [bundle.SigningStatus]. [Evaluate] is the pure decision table. It
// returns [Allow], [Deny], or [Ask]; an Ask outcome defers to an
// injected [AskFunc] (in the CLI, a terminal y/n prompt).
//
// [Engine.Decide] memoizes the final verdict per (identity, level) so
// the ask callback runs at most once per resource for the lifetime of
// the engine. A "no" answer is cached the same as a policy deny. Each
// key has its own lock, so a prompt blocked on a human blocks only the
// callers of that one resource.
//
// An ask can be bounded by [Config.AskTimeout]. When the bound expires
// Decide returns [ErrAskTimeout] and remembers it; the prompt is not
// shown again unless the embedding launcher calls [Engine.Forget].
package trust

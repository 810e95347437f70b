// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the webstart
// binary.
//
// The central type is [Command], a named node with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. The tree is assembled in cmd/webstart and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing,
// and help output with examples.
//
// Unknown subcommands and flags get a "did you mean" suggestion when a
// known name is within Levenshtein distance 3.
//
// [NewCommandLogger] builds the slog logger commands share: text on a
// terminal, JSON otherwise.
package cli

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit path for webstart binaries: the one
// place that writes to stderr without the structured logger, for
// errors that end the process before or after logging is set up.
package process

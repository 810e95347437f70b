// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides channel assertions for the launcher's
// concurrency tests.
//
// Single-flight and timeout tests coordinate goroutines through
// channels. [RequireReceive] and [RequireClosed] wrap the
// select-with-deadline safety valve so a regression fails the test
// instead of hanging it; [RequireBlocked] asserts that a goroutine is
// still parked. These are the only places tests touch the wall clock,
// and only as a hang guard; deadlines under test use lib/clock.
package testutil

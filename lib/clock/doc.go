// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used for the
// launcher's fetch and prompt deadlines.
//
// Components that bound a blocking operation (the loader's fetch
// flight, the trust engine's interactive prompt) take a Clock in their
// Config instead of calling time.After directly. Production passes
// Real(); tests pass Fake() and fire deadlines explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := loader.New(loader.Config{Clock: c, FetchTimeout: time.Minute, ...})
//	go engine.ResolveSymbol(ctx, "com.example.Main")
//	c.WaitForTimers(1)   // the flight has armed its deadline
//	c.Advance(time.Minute)
//
// WaitForTimers removes the race between a goroutine arming a deadline
// and the test advancing past it.
package clock

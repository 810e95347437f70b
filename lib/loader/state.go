// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "fmt"

// State is a record's position in the load state machine.
type State uint8

const (
	StateNotStarted State = iota
	StateFetchInProgress
	StateFetched
	StateTrustDenied
	StateFetchFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateFetchInProgress:
		return "fetch-in-progress"
	case StateFetched:
		return "fetched"
	case StateTrustDenied:
		return "trust-denied"
	case StateFetchFailed:
		return "fetch-failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Terminal reports whether the state only changes through Reset.
func (s State) Terminal() bool {
	return s == StateFetched || s == StateTrustDenied || s == StateFetchFailed
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import "testing"

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
	}{
		{StateNotStarted, false},
		{StateFetchInProgress, false},
		{StateFetched, true},
		{StateTrustDenied, true},
		{StateFetchFailed, true},
	}
	for _, test := range tests {
		t.Run(test.state.String(), func(t *testing.T) {
			if got := test.state.Terminal(); got != test.terminal {
				t.Errorf("%s.Terminal() = %v, want %v", test.state, got, test.terminal)
			}
		})
	}
}

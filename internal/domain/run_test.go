package domain

import "testing"

func TestRunStateTerminal(t *testing.T) {
	tests := []struct {
		state RunState
		want  bool
	}{
		{RunStateStaged, false},
		{RunStateSubmitted, false},
		{RunStateStandardizeReqd, false},
		{RunStatePolling, false},
		{RunStateExtracted, false},
		{RunStateArchived, true},
		{RunStateBinarySaved, true},
		{RunStateFailed, true},
		{RunStateTimedOut, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			if got := tc.state.Terminal(); got != tc.want {
				t.Errorf("Terminal() = %v, want %v", got, tc.want)
			}
		})
	}
}

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tt := []struct {
		name    string
		current Status
		next    Status

		expected bool
	}{
		{
			name:    "waiting to data proposal created",
			current: StatusWaitingDissemination,
			next:    StatusDataProposalCreated,

			expected: true,
		},
		{
			name:    "waiting to sequenced",
			current: StatusWaitingDissemination,
			next:    StatusSequenced,

			expected: true,
		},
		{
			name:    "data proposal created to waiting",
			current: StatusDataProposalCreated,
			next:    StatusWaitingDissemination,

			expected: false,
		},
		{
			name:    "sequenced to data proposal created",
			current: StatusSequenced,
			next:    StatusDataProposalCreated,

			expected: false,
		},
		{
			name:    "sequenced to sequenced",
			current: StatusSequenced,
			next:    StatusSequenced,

			expected: false,
		},
		{
			name:    "sequenced to success",
			current: StatusSequenced,
			next:    StatusSuccess,

			expected: true,
		},
		{
			name:    "sequenced to timed out",
			current: StatusSequenced,
			next:    StatusTimedOut,

			expected: true,
		},
		{
			name:    "success to failure",
			current: StatusSuccess,
			next:    StatusFailure,

			expected: false,
		},
		{
			name:    "timed out to sequenced",
			current: StatusTimedOut,
			next:    StatusSequenced,

			expected: false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// when
			actual := tc.current.CanTransitionTo(tc.next)

			// then
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestStatus_Monotonic(t *testing.T) {
	all := []Status{
		StatusWaitingDissemination,
		StatusDataProposalCreated,
		StatusSequenced,
		StatusSuccess,
		StatusFailure,
		StatusTimedOut,
	}

	// folding any sequence of proposed statuses through the guard never moves backwards
	for _, first := range all {
		for _, second := range all {
			for _, third := range all {
				current := first
				for _, next := range []Status{second, third} {
					if current.CanTransitionTo(next) {
						require.GreaterOrEqual(t, next.rank(), current.rank())
						current = next
					}
				}
				require.GreaterOrEqual(t, current.rank(), first.rank())
				if first.IsTerminal() {
					require.Equal(t, first, current)
				}
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	tt := []struct {
		name  string
		value string

		expectedStatus Status
		expectedError  error
	}{
		{
			name:  "waiting dissemination",
			value: "waiting_dissemination",

			expectedStatus: StatusWaitingDissemination,
		},
		{
			name:  "timed out",
			value: "timed_out",

			expectedStatus: StatusTimedOut,
		},
		{
			name:  "unknown",
			value: "mined",

			expectedError: ErrUnknownStatus,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// when
			actual, err := ParseStatus(tc.value)

			// then
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, actual)
			require.Equal(t, tc.value, actual.String())
		})
	}
}

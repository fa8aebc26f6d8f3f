package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftDate(t *testing.T) {
	cases := []struct {
		in   string
		days int
		want string
	}{
		{"2024-03-09", 1, "2024-03-10"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-03-31", 1, "2024-04-01"},
		{"2024-10-27", 1, "2024-10-28"},
		{"2024-05-05", 0, "2024-05-05"},
		{"2024-05-05", -1, "2024-05-04"},
	}
	for _, tc := range cases {
		got, err := ShiftDate(tc.in, tc.days)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestShiftDateRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "10/03/2024", "2024-13-01", "2024-02-30"} {
		_, err := ShiftDate(in, 1)
		assert.Error(t, err, in)
	}
}

func TestNormalizeSeatNumbers(t *testing.T) {
	assert.Equal(t, []string{"a1", "B2"}, NormalizeSeatNumbers([]string{" a1", "B2", "A1", ""}))
	assert.Equal(t, []string{"1a", "2B"}, NormalizeSeatNumbers([]string{"1a ", "2B"}))
	assert.Empty(t, NormalizeSeatNumbers(nil))
}

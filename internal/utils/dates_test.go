package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateToUnixRoundTrip(t *testing.T) {
	ts, err := DateToUnix("2024-01-13")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-13", UnixToDate(ts))
}

func TestDateToUnixRejectsGarbage(t *testing.T) {
	_, err := DateToUnix("13/01/2024")
	assert.Error(t, err)

	_, err = DateToUnix("")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-13", "2024-01-13", 0},
		{"2024-01-13", "2024-01-14", 1},
		{"2024-01-14", "2024-01-13", 1}, // order-independent
		{"2024-01-13", "2024-01-16", 3},
		{"2023-12-31", "2024-01-01", 1}, // year boundary
	}

	for _, tt := range tests {
		got, err := DaysBetween(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "DaysBetween(%s, %s)", tt.a, tt.b)
	}
}

func TestDaysBetweenUnparseable(t *testing.T) {
	_, err := DaysBetween("not-a-date", "2024-01-13")
	assert.Error(t, err)
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "stripe payout", NormalizeDescription("  Stripe   PAYOUT "))
	assert.Equal(t, "stripe payout", NormalizeDescription("stripe\tpayout"))
	assert.Equal(t, "", NormalizeDescription("   "))
}

package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	table := []struct {
		input    time.Time
		expected string
	}{
		{input: time.Date(2024, 3, 7, 0, 0, 0, 0, loc), expected: "07/03/2024"},
		{input: time.Date(2023, 12, 31, 23, 59, 0, 0, loc), expected: "31/12/2023"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, FormatDate(row.input))

		parsed, err := ParseDate(row.expected, loc)
		require.NoError(t, err)
		require.Equal(t, row.input.Year(), parsed.Year())
		require.Equal(t, row.input.Month(), parsed.Month())
		require.Equal(t, row.input.Day(), parsed.Day())
	}
}

func TestParseDateRejectsIsoDates(t *testing.T) {
	_, err := ParseDate("2024-03-07", time.UTC)
	require.Error(t, err)
}

func TestFixedImpl(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := FixedImpl{At: at}
	require.Equal(t, at, clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}

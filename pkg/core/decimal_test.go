package core

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmountEightDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.1", "0.10000000"},
		{"30000", "30000.00000000"},
		{"0.123456789", "0.12345679"}, // rounds half-even at digit nine
		{"0.00000001", "0.00000001"},
		{"0", "0.00000000"},
		{"-2.5", "-2.50000000"},
	}

	for _, tt := range tests {
		d, _, err := apd.NewFromString(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, FormatAmount(d), "input %s", tt.in)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("30123.45678901")
	require.NoError(t, err)
	assert.Equal(t, "30123.45678901", d.String())

	// Exchanges omit fields; empty parses as zero.
	zero, err := ParseDecimal("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDecimal("not a number")
	assert.Error(t, err)
}

func TestFormatParseRoundTrip(t *testing.T) {
	d, err := ParseDecimal("0.00012345")
	require.NoError(t, err)
	assert.Equal(t, "0.00012345", FormatAmount(&d))
}

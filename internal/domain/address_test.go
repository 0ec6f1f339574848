package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "0xabc123", "0xabc123"},
		{"leading zeros stripped", "0x000abc123", "0xabc123"},
		{"uppercase lowered", "0xABC123", "0xabc123"},
		{"full felt padding", "0x0000000000000000000000000000000000000000000000000000000000abc123", "0xabc123"},
		{"zero address", "0x0000000000000000000000000000000000000000000000000000000000000000", "0x0"},
		{"bare zero", "0x0", "0x0"},
		{"surrounding whitespace", "  0x0ABC  ", "0xabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAddress(tt.input))
		})
	}
}

func TestNormalizeAddressStableEquality(t *testing.T) {
	// The same address from two differently padded producers must compare equal
	a := NormalizeAddress("0x00000000000000000000000000000000000000000000000000000000deadbeef")
	b := NormalizeAddress("0xDEADBEEF")
	assert.Equal(t, a, b)
}

func TestIsZeroAddress(t *testing.T) {
	assert.True(t, IsZeroAddress("0x0"))
	assert.True(t, IsZeroAddress("0x00000000"))
	assert.False(t, IsZeroAddress("0x1"))
}

func TestParseFelt(t *testing.T) {
	n := ParseFelt("0xff")
	require.NotNil(t, n)
	assert.EqualValues(t, 255, n.Int64())

	n = ParseFelt("42")
	require.NotNil(t, n)
	assert.EqualValues(t, 42, n.Int64())

	assert.Nil(t, ParseFelt("not-a-number"))
	assert.Nil(t, ParseFelt("0xzz"))
}

func TestParseFeltRejectsNegative(t *testing.T) {
	// felts are field elements; a signed value can never normalize into a
	// well-formed address
	assert.Nil(t, ParseFelt("-5"))
	assert.Nil(t, ParseFelt("0x-5"))
}

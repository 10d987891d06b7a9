package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress("0xAbCdEf0123456789abcdef0123456789ABCDEF01")
	require.NoError(t, err)
	assert.Equal(t, Address("0xabcdef0123456789abcdef0123456789abcdef01"), got)

	got, err = ParseAddress("  0x1111111111111111111111111111111111111111\n")
	require.NoError(t, err)
	assert.Equal(t, Address("0x1111111111111111111111111111111111111111"), got)

	for _, bad := range []string{
		"",
		"0x",
		"1111111111111111111111111111111111111111",
		"0x111111111111111111111111111111111111111",
		"0x11111111111111111111111111111111111111111",
		"0xzz11111111111111111111111111111111111111",
	} {
		_, err := ParseAddress(bad)
		assert.True(t, errors.Is(err, ErrInvalidIdentity), "input %q", bad)
	}
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.True(t, Address("").IsZero())
	assert.False(t, Address("0x1111111111111111111111111111111111111111").IsZero())
}

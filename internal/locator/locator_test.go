package locator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressIsDeterministic(t *testing.T) {
	content := []byte("articles of incorporation, signed")
	loc1 := Address(content)
	loc2 := Address(content)
	assert.Equal(t, loc1, loc2)
	assert.True(t, strings.HasPrefix(loc1, Prefix))
}

func TestAddressDistinguishesContent(t *testing.T) {
	loc1 := Address([]byte("invoice batch 2026-01"))
	loc2 := Address([]byte("invoice batch 2026-02"))
	assert.NotEqual(t, loc1, loc2)
}

func TestAddressOfEmptyContent(t *testing.T) {
	loc := Address(nil)
	require.True(t, IsValid(loc))
	assert.Equal(t, loc, Address([]byte{}))
}

func TestIsValid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		locator string
		valid   bool
	}{
		{name: "derived locator", locator: Address([]byte("some bytes")), valid: true},
		{name: "empty string", locator: "", valid: false},
		{name: "prefix only", locator: Prefix, valid: false},
		{name: "missing prefix", locator: Address([]byte("some bytes"))[len(Prefix):], valid: false},
		{name: "wallet address", locator: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", valid: false},
		{name: "non base58 payload", locator: Prefix + "0OIl+/=", valid: false},
		{name: "truncated digest", locator: Address([]byte("some bytes"))[:20], valid: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValid(tc.locator))
		})
	}
}

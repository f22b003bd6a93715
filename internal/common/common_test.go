package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeIdentity("  0xAbCdEf "))
	assert.Equal(t, NormalizeIdentity("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
		NormalizeIdentity("0x742D35CC6634C0532925A3B844BC454E4438F44E"))
}

func TestIsWalletAddress(t *testing.T) {
	assert.True(t, IsWalletAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))
	assert.False(t, IsWalletAddress("742d35Cc6634C0532925a3b844Bc454e4438f44e "))
	assert.False(t, IsWalletAddress("doc1somelocator"))
	assert.False(t, IsWalletAddress(""))
}

func TestBusinessHash(t *testing.T) {
	// keccak-256 of the empty input is a well known constant
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", BusinessHash(nil))
	assert.Equal(t, BusinessHash([]byte("acme gmbh")), BusinessHash([]byte("acme gmbh")))
	assert.NotEqual(t, BusinessHash([]byte("acme gmbh")), BusinessHash([]byte("acme ag")))
}

package common

import (
	"encoding/hex"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ToPointer is a helper function to create a pointer to a value.
func ToPointer[T any](v T) *T {
	return &v
}

// NormalizeIdentity case-folds a business identity so that differently cased
// representations of the same wallet address resolve to one index entry.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// IsWalletAddress tells whether the identity is a hex wallet address
func IsWalletAddress(identity string) bool {
	return ethcommon.IsHexAddress(identity)
}

// BusinessHash returns the keccak-256 commitment over off-chain business
// identity data, hex encoded with 0x prefix. It matches the commitment scheme
// the ledger uses, so the same data hashes to the same value on both sides.
func BusinessHash(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

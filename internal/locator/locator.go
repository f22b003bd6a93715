// Package locator derives content addresses for stored compliance documents.
//
// A locator is the sha-256 digest of the content, base58btc encoded and carrying
// a fixed "doc1" prefix. The prefix keeps locators apart from business
// identities (0x… addresses) so the two can never collide in the mapping index.
package locator

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// Prefix marks every content address produced by this package
const Prefix = "doc1"

const digestLen = sha256.Size

// Address derives the deterministic content address of content. Same bytes
// always yield the same locator.
func Address(content []byte) string {
	sum := sha256.Sum256(content)
	return Prefix + base58.Encode(sum[:])
}

// IsValid tells whether s is a well-formed locator
func IsValid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	raw, err := base58.Decode(s[len(Prefix):])
	if err != nil {
		return false
	}
	return len(raw) == digestLen
}

package cache

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// KeyLength is the number of hex characters kept from the digest. It is a
// fixed constant: changing it renames every conventional artifact path and
// therefore invalidates all existing caches.
const KeyLength = 16

// Key is a truncated hex digest of a diagram's source text. Identical source
// bytes always produce the same Key, across runs and processes.
type Key string

// Digest computes the Key for a diagram source string.
//
// The source is hashed byte-exact with BLAKE3; no whitespace normalization is
// applied, so two diagrams differing only in trailing whitespace get distinct
// keys. The full digest is hex-encoded and truncated to KeyLength characters.
func Digest(source string) Key {
	sum := blake3.Sum256([]byte(source))
	return Key(hex.EncodeToString(sum[:])[:KeyLength])
}

package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

type Hash [HashSize]byte

// HashData is the blake2b-256 hash of data.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

// HashConcat hashes the concatenation of the given byte slices.
func HashConcat(parts ...[]byte) Hash {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash never returns an error
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ParseHash decodes a 0x-prefixed or bare hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("decode hash: expected %d bytes, got %d", HashSize, len(b))
	}
	return Hash(b), nil
}

package binary_tree

import "github.com/eigerco/slashing/internal/crypto"

// convertHashToBlob explicitly converts the Hash to a byte slice
func convertHashToBlob(h crypto.Hash) []byte {
	return h[:]
}

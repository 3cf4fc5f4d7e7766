package binary_tree

import (
	"github.com/eigerco/slashing/internal/crypto"
)

// ComputeWellBalancedRoot computes the root hash of a well-balanced Binary Merkle tree.
// Suitable for data not much greater than 32 octets in length as it avoids
// hashing each item in the sequence.
func ComputeWellBalancedRoot(blobs [][]byte, hashFunc func([]byte) crypto.Hash) crypto.Hash {
	if len(blobs) == 0 {
		return crypto.Hash{}
	}

	// If |v| = 1, return H(v0)
	if len(blobs) == 1 {
		return hashFunc(blobs[0])
	}

	// Otherwise return N(v, H)
	return crypto.Hash(ComputeNode(blobs, hashFunc))
}

package binary_tree

import (
	"github.com/eigerco/slashing/internal/crypto"
)

var nodePrefix = []byte("node")

// ComputeNode computes the Merkle node N for a sequence of blobs. A single
// blob is its own node; anything longer is hashed as
// H("node" ⌢ N(left) ⌢ N(right)) with the left half taking the extra item.
func ComputeNode(blobs [][]byte, hashFunc func([]byte) crypto.Hash) []byte {
	if len(blobs) == 0 {
		return make([]byte, crypto.HashSize)
	}
	if len(blobs) == 1 {
		return blobs[0]
	}

	mid := getMid(blobs)
	left := ComputeNode(blobs[:mid], hashFunc)
	right := ComputeNode(blobs[mid:], hashFunc)

	return convertHashToBlob(hashFunc(joinNode(left, right)))
}

func joinNode(left, right []byte) []byte {
	combined := make([]byte, 0, len(nodePrefix)+len(left)+len(right))
	combined = append(combined, nodePrefix...)
	combined = append(combined, left...)
	return append(combined, right...)
}

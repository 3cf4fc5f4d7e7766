package binary_tree

import (
	"github.com/eigerco/slashing/internal/crypto"
)

// ComputeTrace returns, top-down, the sibling nodes on the path from the
// root to the blob at index.
func ComputeTrace(blobs [][]byte, index int, hashFunc func([]byte) crypto.Hash) [][]byte {
	if len(blobs) <= 1 {
		return [][]byte{}
	}

	// sibling half of the current level
	node := ComputeNode(computeP(blobs, index, false), hashFunc)

	trace := ComputeTrace(computeP(blobs, index, true), index-computePi(blobs, index), hashFunc)

	return append([][]byte{node}, trace...)
}

// VerifyTrace checks that leaf sits at index of a count-long sequence whose
// well-balanced root is root, given the trace produced by ComputeTrace.
func VerifyTrace(root crypto.Hash, leaf []byte, index, count int, trace [][]byte, hashFunc func([]byte) crypto.Hash) bool {
	if count <= 0 || index < 0 || index >= count {
		return false
	}
	if count == 1 {
		return len(trace) == 0 && hashFunc(leaf) == root
	}

	// isLeft[k] records whether the path goes through the left half at depth k
	isLeft := make([]bool, 0, len(trace))
	for n := count; n > 1; {
		mid := n - n/2
		if index < mid {
			isLeft = append(isLeft, true)
			n = mid
		} else {
			isLeft = append(isLeft, false)
			index -= mid
			n -= mid
		}
	}
	if len(isLeft) != len(trace) {
		return false
	}

	node := leaf
	for k := len(trace) - 1; k >= 0; k-- {
		if isLeft[k] {
			node = convertHashToBlob(hashFunc(joinNode(node, trace[k])))
		} else {
			node = convertHashToBlob(hashFunc(joinNode(trace[k], node)))
		}
	}
	return crypto.Hash(node) == root
}

func computeP(blobs [][]byte, index int, s bool) [][]byte {
	mid := getMid(blobs)
	if index < mid == s {
		return blobs[:mid]
	}
	return blobs[mid:]
}

func computePi(blobs [][]byte, index int) int {
	mid := getMid(blobs)
	if index < mid {
		return 0
	}
	return mid
}

func getMid(blobs [][]byte) int {
	return len(blobs) - len(blobs)/2 // Round up for odd lengths
}

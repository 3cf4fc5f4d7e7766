package binary_tree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/slashing/internal/crypto"
)

func leaves(n int) [][]byte {
	blobs := make([][]byte, n)
	for i := range blobs {
		blobs[i] = []byte(fmt.Sprintf("validator-%d", i))
	}
	return blobs
}

func TestComputeNode(t *testing.T) {
	h := crypto.HashData

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, make([]byte, crypto.HashSize), ComputeNode(nil, h))
	})

	t.Run("single_blob_is_its_own_node", func(t *testing.T) {
		assert.Equal(t, []byte("a"), ComputeNode([][]byte{[]byte("a")}, h))
	})

	t.Run("three_blobs_split_left_heavy", func(t *testing.T) {
		blobs := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
		left := h(append([]byte("node"), []byte("ab")...))
		want := h(append(append([]byte("node"), left[:]...), []byte("c")...))
		assert.Equal(t, want[:], ComputeNode(blobs, h))
	})
}

func TestComputeWellBalancedRoot(t *testing.T) {
	h := crypto.HashData

	assert.Equal(t, crypto.Hash{}, ComputeWellBalancedRoot(nil, h))
	assert.Equal(t, h([]byte("a")), ComputeWellBalancedRoot([][]byte{[]byte("a")}, h))

	blobs := leaves(4)
	assert.Equal(t, crypto.Hash(ComputeNode(blobs, h)), ComputeWellBalancedRoot(blobs, h))
}

func TestTraceRoundTrip(t *testing.T) {
	h := crypto.HashData
	for n := 1; n <= 9; n++ {
		blobs := leaves(n)
		root := ComputeWellBalancedRoot(blobs, h)
		for i := 0; i < n; i++ {
			t.Run(fmt.Sprintf("n=%d/i=%d", n, i), func(t *testing.T) {
				trace := ComputeTrace(blobs, i, h)
				require.True(t, VerifyTrace(root, blobs[i], i, n, trace, h))
			})
		}
	}
}

func TestVerifyTraceRejects(t *testing.T) {
	h := crypto.HashData
	blobs := leaves(5)
	root := ComputeWellBalancedRoot(blobs, h)
	trace := ComputeTrace(blobs, 2, h)

	tests := []struct {
		name  string
		leaf  []byte
		index int
		count int
		trace [][]byte
	}{
		{name: "wrong_leaf", leaf: []byte("validator-9"), index: 2, count: 5, trace: trace},
		{name: "wrong_index", leaf: blobs[2], index: 3, count: 5, trace: trace},
		{name: "wrong_count", leaf: blobs[2], index: 2, count: 9, trace: trace},
		{name: "index_out_of_range", leaf: blobs[2], index: 5, count: 5, trace: trace},
		{name: "short_trace", leaf: blobs[2], index: 2, count: 5, trace: trace[1:]},
		{name: "zero_count", leaf: blobs[2], index: 0, count: 0, trace: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, VerifyTrace(root, tc.leaf, tc.index, tc.count, tc.trace, h))
		})
	}

	t.Run("tampered_sibling", func(t *testing.T) {
		tampered := make([][]byte, len(trace))
		copy(tampered, trace)
		tampered[0] = []byte("forged")
		assert.False(t, VerifyTrace(root, blobs[2], 2, 5, tampered, h))
	})
}

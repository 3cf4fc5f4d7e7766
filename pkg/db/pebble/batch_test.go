package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAtomicCommit(t *testing.T) {
	store, err := NewKVStore()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	require.NoError(t, store.Put([]byte("losers"), []byte{1, 2}))

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("winners"), []byte{7}))
	require.NoError(t, batch.Delete([]byte("losers")))

	// nothing is visible before commit
	_, err = store.Get([]byte("winners"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get([]byte("losers"))
	require.NoError(t, err)

	require.NoError(t, batch.Commit())

	value, err := store.Get([]byte("winners"))
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, value)
	_, err = store.Get([]byte("losers"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchDone(t *testing.T) {
	store, err := NewKVStore()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Commit())

	assert.ErrorIs(t, batch.Put([]byte("k2"), []byte("v2")), ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("k")), ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
	assert.NoError(t, batch.Close())
	assert.NoError(t, batch.Close())
}

func TestBatchCloseDiscards(t *testing.T) {
	store, err := NewKVStore()
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("discarded"), []byte("v")))
	require.NoError(t, batch.Close())

	_, err = store.Get([]byte("discarded"))
	assert.ErrorIs(t, err, ErrNotFound)
}

package txpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/internal/testutils"
)

type validatorMock struct {
	mock.Mock
}

func (v *validatorMock) ValidateUnsigned(source slashing.TransactionSource, call *slashing.ReportDisputeLost) (slashing.ValidTransaction, error) {
	args := v.MethodCalled("ValidateUnsigned", source, call)
	return args.Get(0).(slashing.ValidTransaction), args.Error(1)
}

func newCall(loser uint32) *slashing.ReportDisputeLost {
	return &slashing.ReportDisputeLost{
		DisputeProof: slashing.DisputeProof{
			TimeSlot:       slashing.TimeSlot{SessionIndex: 1, CandidateHash: crypto.Hash{1}},
			Kind:           slashing.ForInvalid,
			ValidatorIndex: 0,
			ValidatorID:    testutils.ValidatorKey(loser),
		},
	}
}

func validTx(tag string, priority, longevity uint64) slashing.ValidTransaction {
	return slashing.ValidTransaction{
		Priority:  priority,
		Provides:  []slashing.TransactionTag{slashing.TransactionTag(tag)},
		Longevity: longevity,
	}
}

func TestSubmit(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	call := newCall(1)
	v.On("ValidateUnsigned", slashing.SourceLocal, call).Return(validTx("a", 1, 10), nil).Once()

	require.NoError(t, pool.SubmitUnsigned(call))
	require.Equal(t, 1, pool.Len())

	ready := pool.Ready()
	require.Len(t, ready, 1)
	tx, ok := pool.Get(ready[0].Hash)
	require.True(t, ok)
	assert.Equal(t, call, tx.Call)
	assert.Equal(t, slashing.SourceLocal, tx.Source)
	assert.Equal(t, uint64(10), tx.ValidTill)

	_, err := pool.Submit(slashing.SourceInBlock, call)
	require.ErrorIs(t, err, ErrAlreadyImported)
	v.AssertExpectations(t)
}

func TestSubmitRejected(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	call := newCall(1)
	v.On("ValidateUnsigned", slashing.SourceExternal, call).Return(slashing.ValidTransaction{}, slashing.ErrInvalidCall)

	_, err := pool.Submit(slashing.SourceExternal, call)
	require.ErrorIs(t, err, slashing.ErrInvalidCall)
	assert.Zero(t, pool.Len())

	_, err = pool.Submit(slashing.SourceLocal, nil)
	require.ErrorIs(t, err, slashing.ErrInvalidCall)
}

func TestSubmitTagConflict(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	first, second := newCall(1), newCall(2)
	v.On("ValidateUnsigned", slashing.SourceLocal, first).Return(validTx("same", 1, 10), nil)
	v.On("ValidateUnsigned", slashing.SourceLocal, second).Return(validTx("same", 1, 10), nil)

	firstHash, err := pool.Submit(slashing.SourceLocal, first)
	require.NoError(t, err)
	_, err = pool.Submit(slashing.SourceLocal, second)
	require.ErrorIs(t, err, ErrTagAlreadyInPool)

	pool.Remove(firstHash)
	assert.Zero(t, pool.Len())
	_, err = pool.Submit(slashing.SourceLocal, second)
	require.NoError(t, err)
}

func TestReadyOrder(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)

	calls := []*slashing.ReportDisputeLost{newCall(1), newCall(2), newCall(3), newCall(4)}
	priorities := []uint64{5, slashing.MaxPriority, 5, 1}
	hashes := make([]crypto.Hash, len(calls))
	for i, call := range calls {
		v.On("ValidateUnsigned", slashing.SourceLocal, call).Return(validTx(string(rune('a'+i)), priorities[i], 10), nil)
		hash, err := pool.Submit(slashing.SourceLocal, call)
		require.NoError(t, err)
		hashes[i] = hash
	}

	var got []crypto.Hash
	for _, tx := range pool.Ready() {
		got = append(got, tx.Hash)
	}
	assert.Equal(t, []crypto.Hash{hashes[1], hashes[0], hashes[2], hashes[3]}, got)
}

func TestPropagatable(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	local, gossip := newCall(1), newCall(2)

	gossipValid := validTx("g", 1, 10)
	gossipValid.Propagate = true
	v.On("ValidateUnsigned", slashing.SourceLocal, local).Return(validTx("l", 1, 10), nil)
	v.On("ValidateUnsigned", slashing.SourceLocal, gossip).Return(gossipValid, nil)

	_, err := pool.Submit(slashing.SourceLocal, local)
	require.NoError(t, err)
	gossipHash, err := pool.Submit(slashing.SourceLocal, gossip)
	require.NoError(t, err)

	out := pool.Propagatable()
	require.Len(t, out, 1)
	assert.Equal(t, gossipHash, out[0].Hash)
}

func TestNewBlock(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	short, long, revoked := newCall(1), newCall(2), newCall(3)

	v.On("ValidateUnsigned", slashing.SourceLocal, short).Return(validTx("s", 1, 5), nil)
	v.On("ValidateUnsigned", slashing.SourceLocal, long).Return(validTx("l", 1, 100), nil)
	v.On("ValidateUnsigned", slashing.SourceLocal, revoked).Return(validTx("r", 1, 100), nil).Once()
	v.On("ValidateUnsigned", slashing.SourceLocal, revoked).Return(slashing.ValidTransaction{}, slashing.ErrStale)

	shortHash, err := pool.Submit(slashing.SourceLocal, short)
	require.NoError(t, err)
	longHash, err := pool.Submit(slashing.SourceLocal, long)
	require.NoError(t, err)
	revokedHash, err := pool.Submit(slashing.SourceLocal, revoked)
	require.NoError(t, err)

	pool.NewBlock(5)
	_, ok := pool.Get(shortHash)
	assert.True(t, ok, "still valid in its last block")
	_, ok = pool.Get(revokedHash)
	assert.False(t, ok, "dropped once revalidation fails")

	pool.NewBlock(6)
	_, ok = pool.Get(shortHash)
	assert.False(t, ok, "longevity ran out")
	tx, ok := pool.Get(longHash)
	require.True(t, ok)
	assert.Equal(t, uint64(100), tx.ValidTill)
}

func TestValidTillCountsFromCurrentBlock(t *testing.T) {
	v := &validatorMock{}
	pool := New(v)
	v.On("ValidateUnsigned", slashing.SourceLocal, mock.Anything).Return(validTx("x", 1, slashing.MaxPriority), nil)

	pool.NewBlock(40)
	hash, err := pool.Submit(slashing.SourceLocal, newCall(1))
	require.NoError(t, err)

	tx, ok := pool.Get(hash)
	require.True(t, ok)
	assert.Equal(t, slashing.MaxPriority, tx.ValidTill, "saturates instead of wrapping")
}

package slashing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/testutils"
)

const testLongevity = 600

func TestValidateUnsignedAccepts(t *testing.T) {
	for _, kind := range Kinds() {
		for _, source := range []TransactionSource{SourceLocal, SourceInBlock} {
			t.Run(kind.String()+"/"+source.String(), func(t *testing.T) {
				env := newTestEnv(t)
				call := reportCall(3, crypto.Hash{3}, kind, 2)
				offenders := []historical.IdentificationTuple{identification(2)}

				env.keyOwners.On("CheckProof", crypto.ParachainKeyTypeID, testutils.ValidatorKey(2), call.KeyOwnerProof).Return(identification(2), true)
				env.reports.On("IsKnownOffence", kind, offenders, call.DisputeProof.TimeSlot).Return(false)
				env.reports.On("ReportLongevity").Return(uint64(testLongevity))

				valid, err := env.module.ValidateUnsigned(source, call)
				require.NoError(t, err)
				assert.Equal(t, MaxPriority, valid.Priority)
				assert.Equal(t, uint64(testLongevity), valid.Longevity)
				assert.False(t, valid.Propagate)
				assert.Empty(t, valid.Requires)
				require.Len(t, valid.Provides, 1)

				prefix := kind.TagPrefix()
				tag := valid.Provides[0]
				assert.Equal(t, byte(len(prefix)<<2), tag[0], "compact length of the prefix")
				assert.True(t, bytes.HasPrefix(tag[1:], []byte(prefix)))

				again, err := env.module.ValidateUnsigned(source, call)
				require.NoError(t, err)
				assert.Equal(t, valid, again)

				require.NoError(t, env.module.PreDispatch(call))
				env.assertExpectations(t)
			})
		}
	}
}

func TestValidateUnsignedTagsDistinguishReports(t *testing.T) {
	env := newTestEnv(t)
	env.keyOwners.On("CheckProof", mock.Anything, mock.Anything, mock.Anything).Return(identification(0), true)
	env.reports.On("IsKnownOffence", mock.Anything, mock.Anything, mock.Anything).Return(false)
	env.reports.On("ReportLongevity").Return(uint64(testLongevity))

	calls := []*ReportDisputeLost{
		reportCall(3, crypto.Hash{3}, ForInvalid, 2),
		reportCall(3, crypto.Hash{3}, AgainstValid, 2),
		reportCall(3, crypto.Hash{3}, ForInvalid, 4),
		reportCall(3, crypto.Hash{4}, ForInvalid, 2),
		reportCall(4, crypto.Hash{3}, ForInvalid, 2),
	}
	seen := make(map[string]int)
	for i, call := range calls {
		valid, err := env.module.ValidateUnsigned(SourceLocal, call)
		require.NoError(t, err)
		tag := string(valid.Provides[0])
		prev, dup := seen[tag]
		assert.False(t, dup, "call %d provides the same tag as call %d", i, prev)
		seen[tag] = i
	}

	// a different ownership proof for the same offender provides the same tag
	first, err := env.module.ValidateUnsigned(SourceLocal, calls[0])
	require.NoError(t, err)
	other := reportCall(3, crypto.Hash{3}, ForInvalid, 2)
	other.KeyOwnerProof.Trace = [][]byte{{1, 2, 3}}
	second, err := env.module.ValidateUnsigned(SourceLocal, other)
	require.NoError(t, err)
	assert.Equal(t, first.Provides, second.Provides)
}

func TestValidateUnsignedRejects(t *testing.T) {
	testCases := []struct {
		name   string
		source TransactionSource
		call   *ReportDisputeLost
		setup  func(env *testEnv)
		want   error
	}{
		{
			name:   "external source",
			source: SourceExternal,
			call:   reportCall(1, crypto.Hash{1}, ForInvalid, 0),
			want:   ErrInvalidCall,
		},
		{
			name:   "nil call",
			source: SourceLocal,
			want:   ErrInvalidCall,
		},
		{
			name:   "unknown kind",
			source: SourceLocal,
			call:   reportCall(1, crypto.Hash{1}, OffenceKind(7), 0),
			want:   ErrInvalidCall,
		},
		{
			name:   "bad proof",
			source: SourceLocal,
			call:   reportCall(1, crypto.Hash{1}, ForInvalid, 0),
			setup: func(env *testEnv) {
				env.keyOwners.On("CheckProof", mock.Anything, mock.Anything, mock.Anything).Return(historical.IdentificationTuple{}, false)
			},
			want: ErrBadProof,
		},
		{
			name:   "already reported",
			source: SourceInBlock,
			call:   reportCall(1, crypto.Hash{1}, AgainstValid, 0),
			setup: func(env *testEnv) {
				env.keyOwners.On("CheckProof", mock.Anything, mock.Anything, mock.Anything).Return(identification(0), true)
				env.reports.On("IsKnownOffence", AgainstValid, []historical.IdentificationTuple{identification(0)}, TimeSlot{SessionIndex: 1, CandidateHash: crypto.Hash{1}}).Return(true)
			},
			want: ErrStale,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tc.setup != nil {
				tc.setup(env)
			}
			_, err := env.module.ValidateUnsigned(tc.source, tc.call)
			require.ErrorIs(t, err, tc.want)

			if tc.source != SourceExternal {
				require.ErrorIs(t, env.module.PreDispatch(tc.call), tc.want)
			}
			env.assertExpectations(t)
		})
	}
}

func TestValidateUnsignedWithNoopHandlerIsStale(t *testing.T) {
	env := newTestEnv(t)
	env.module.reports = NoopReportHandler{}
	env.keyOwners.On("CheckProof", mock.Anything, mock.Anything, mock.Anything).Return(identification(0), true)

	_, err := env.module.ValidateUnsigned(SourceLocal, reportCall(1, crypto.Hash{1}, ForInvalid, 0))
	require.ErrorIs(t, err, ErrStale)
}

func TestValidationIsStableUntilStateChanges(t *testing.T) {
	env := newTestEnv(t)
	env.startSessions(t, 1, 2)
	candidate := crypto.Hash{9}
	require.NoError(t, env.module.PunishForInvalid(1, candidate, indices(0), nil))

	call := reportCall(1, candidate, ForInvalid, 0)
	known := false
	env.keyOwners.On("CheckProof", mock.Anything, mock.Anything, mock.Anything).Return(identification(0), true)
	env.reports.On("IsKnownOffence", ForInvalid, mock.Anything, mock.Anything).Return(func(OffenceKind, []historical.IdentificationTuple, TimeSlot) bool {
		return known
	})
	env.reports.On("ReportLongevity").Return(uint64(testLongevity))
	env.reports.On("ReportOffence", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		known = true
	}).Return(nil)

	first, err := env.module.ValidateUnsigned(SourceLocal, call)
	require.NoError(t, err)
	second, err := env.module.ValidateUnsigned(SourceLocal, call)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, env.module.PreDispatch(call))
	require.NoError(t, env.module.ReportDisputeLost(call))

	_, err = env.module.ValidateUnsigned(SourceLocal, call)
	require.ErrorIs(t, err, ErrStale)
	require.ErrorIs(t, env.module.PreDispatch(call), ErrStale)
}

package slashing

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/internal/testutils"
	"github.com/eigerco/slashing/pkg/db/pebble"
)

const (
	testValidators    = 8
	testDiscoveryKeys = 10
	testDisputePeriod = 6
)

type fixedConfig uint32

func (c fixedConfig) DisputePeriod() uint32 {
	return uint32(c)
}

type testEnv struct {
	module     *Module
	sessions   *session.Store
	ledger     *Ledger
	reports    *ReportHandlerMock
	keyOwners  *KeyOwnerProofSystemMock
	identifier *IdentifierMock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, kv.Close())
	})

	env := &testEnv{
		sessions:   session.NewStore(kv),
		ledger:     NewLedger(kv),
		reports:    NewReportHandlerMock(),
		keyOwners:  NewKeyOwnerProofSystemMock(),
		identifier: NewIdentifierMock(),
	}
	env.module = NewModule(env.ledger, env.sessions, env.identifier, env.keyOwners, env.reports, fixedConfig(testDisputePeriod), opts...)
	return env
}

// startSessions starts every session in [from, to] with the same validator set.
func (e *testEnv) startSessions(t *testing.T, from, to session.Index) {
	accounts := make([]crypto.AccountID, testValidators)
	validators := make([]crypto.ValidatorID, testValidators)
	for i := uint32(0); i < testValidators; i++ {
		accounts[i] = testutils.Account(i)
		validators[i] = testutils.ValidatorKey(i)
	}
	for idx := from; idx <= to; idx++ {
		_, err := e.sessions.Start(idx, accounts, session.Info{Validators: validators, DiscoveryKeys: testDiscoveryKeys})
		require.NoError(t, err)
	}
}

// identifyAll makes every test account identifiable in the current session.
func (e *testEnv) identifyAll() {
	for i := uint32(0); i < testValidators; i++ {
		e.identifier.On("IdentificationOf", testutils.Account(i)).Return(identification(i), true)
	}
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.reports.AssertExpectations(t)
	e.keyOwners.AssertExpectations(t)
	e.identifier.AssertExpectations(t)
}

func identification(n uint32) historical.IdentificationTuple {
	return historical.IdentificationTuple{
		Account:  testutils.Account(n),
		Exposure: historical.Exposure{Own: uint64(n) * 100, Total: uint64(n) * 1000},
	}
}

func indices(ii ...uint32) []session.ValidatorIndex {
	out := make([]session.ValidatorIndex, len(ii))
	for i, v := range ii {
		out[i] = session.ValidatorIndex(v)
	}
	return out
}

func accounts(ii ...uint32) []crypto.AccountID {
	out := make([]crypto.AccountID, len(ii))
	for i, v := range ii {
		out[i] = testutils.Account(v)
	}
	return out
}

func emptyReporters() interface{} {
	return mock.MatchedBy(func(r []crypto.AccountID) bool { return len(r) == 0 })
}

func reportCall(idx session.Index, candidate crypto.Hash, kind OffenceKind, loser uint32) *ReportDisputeLost {
	return &ReportDisputeLost{
		DisputeProof: DisputeProof{
			TimeSlot:       TimeSlot{SessionIndex: idx, CandidateHash: candidate},
			Kind:           kind,
			ValidatorIndex: session.ValidatorIndex(loser),
			ValidatorID:    testutils.ValidatorKey(loser),
		},
		KeyOwnerProof: historical.Proof{
			SessionIndex:      idx,
			ValidatorSetCount: testValidators,
			LeafIndex:         loser,
			Identification:    identification(loser),
		},
	}
}

func sessionIndex(i uint32) session.Index {
	return session.Index(i)
}

type directoryWithoutCurrent struct {
	*session.Store
}

func (d *directoryWithoutCurrent) CurrentIndex() (session.Index, error) {
	return 0, session.ErrNoCurrentSession
}

type failingDirectory struct {
	err error
}

func (f *failingDirectory) AccountKeys(session.Index) ([]crypto.AccountID, error) {
	return nil, f.err
}

func (f *failingDirectory) SessionInfo(session.Index) (session.Info, error) {
	return session.Info{}, f.err
}

func (f *failingDirectory) CurrentIndex() (session.Index, error) {
	return 0, f.err
}

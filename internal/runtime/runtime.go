package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eigerco/slashing/internal/config"
	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/disputes"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/offences"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/internal/txpool"
	"github.com/eigerco/slashing/pkg/db"
	"github.com/eigerco/slashing/pkg/log"
)

var ErrNoSessionMembers = errors.New("session has no members")

// Runtime ties the session directory, the historical proofs, the offence
// sink, the dispute slashing module and the report pool to one store.
type Runtime struct {
	mu    sync.Mutex
	block uint64

	config     *config.Config
	Sessions   *session.Store
	Historical *historical.Store
	Offences   *offences.Sink
	Slashing   *slashing.Module
	Reports    *slashing.SlashingReportHandler
	Pool       *txpool.Pool
}

func New(kv db.KVStore, cfg *config.Config) (*Runtime, error) {
	winners, err := cfg.Winners()
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		config:     cfg,
		Sessions:   session.NewStore(kv),
		Historical: historical.NewStore(kv, crypto.ParachainKeyTypeID),
		Offences:   offences.NewSink(kv),
	}
	// the pool validates through the module, which submits through the pool
	r.Reports = slashing.NewSlashingReportHandler(r.Offences, cfg.Slashing.ReportLongevity, poolSubmitter{r})
	r.Slashing = slashing.NewModule(
		slashing.NewLedger(kv),
		r.Sessions,
		r.Historical,
		r.Historical,
		r.Reports,
		cfg,
		slashing.WithWinnersSelection(winners),
		slashing.WithWeightInfo(cfg.Weights()),
	)
	r.Pool = txpool.New(r.Slashing)
	return r, nil
}

type poolSubmitter struct {
	r *Runtime
}

func (p poolSubmitter) SubmitUnsigned(call *slashing.ReportDisputeLost) error {
	return p.r.Pool.SubmitUnsigned(call)
}

// SessionSetup describes the validator set of a new session.
type SessionSetup struct {
	Index session.Index
	// Members are the parachain validators in validator index order.
	Members []historical.Member
	// OtherValidators counts validators of the session outside the
	// parachain set.
	OtherValidators uint32
}

// NewSession rotates to the next session: the validator set is recorded
// and committed to, and entries older than the dispute window are dropped.
func (r *Runtime) NewSession(setup SessionSetup) error {
	if len(setup.Members) == 0 {
		return ErrNoSessionMembers
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts := make([]crypto.AccountID, len(setup.Members))
	validators := make([]crypto.ValidatorID, len(setup.Members))
	for i, m := range setup.Members {
		accounts[i] = m.Account
		validators[i] = m.Validator
	}
	notification, err := r.Sessions.Start(setup.Index, accounts, session.Info{
		Validators:    validators,
		DiscoveryKeys: uint32(len(setup.Members)) + setup.OtherValidators,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if _, err := r.Historical.NoteSession(setup.Index, setup.Members); err != nil {
		return fmt.Errorf("note session: %w", err)
	}

	r.Slashing.InitializerOnNewSession(notification)

	if oldest, ok := r.oldestKept(setup.Index); ok {
		if _, err := r.Sessions.Prune(oldest); err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		if err := r.Historical.Prune(oldest); err != nil {
			return fmt.Errorf("prune historical sessions: %w", err)
		}
	}

	log.Root.Info().
		Uint32("session", uint32(setup.Index)).
		Int("validators", len(setup.Members)).
		Msg("new session")
	return nil
}

// oldestKept is the first session still inside the dispute window.
func (r *Runtime) oldestKept(current session.Index) (session.Index, bool) {
	window := uint64(r.config.DisputePeriod()) + 1
	if uint64(current) <= window {
		return 0, false
	}
	return current - session.Index(window), true
}

// ConcludeDispute punishes the side of a dispute that lost.
func (r *Runtime) ConcludeDispute(outcome disputes.Outcome) error {
	if outcome.Valid {
		return r.Slashing.PunishAgainstValid(outcome.Session, outcome.Candidate, outcome.Losers(), outcome.Winners())
	}
	return r.Slashing.PunishForInvalid(outcome.Session, outcome.Candidate, outcome.Losers(), outcome.Winners())
}

// ConcludeVerdict tallies the judgements against the validator set of the
// disputed session and punishes the losing side.
func (r *Runtime) ConcludeVerdict(verdict disputes.Verdict) error {
	accounts, err := r.Sessions.AccountKeys(verdict.Session)
	if err != nil {
		return fmt.Errorf("session %d accounts: %w", verdict.Session, err)
	}
	outcome, err := disputes.Conclude(verdict, len(accounts))
	if err != nil {
		return err
	}
	return r.ConcludeDispute(outcome)
}

// Pending lists the slashes waiting for a key ownership proof.
func (r *Runtime) Pending() ([]slashing.PendingSlashes, error) {
	return r.Slashing.Ledger().Unapplied()
}

func (r *Runtime) BlockNumber() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.block
}

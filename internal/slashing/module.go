package slashing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/session"
)

// KeyOwnerProofSystem checks that a session key belonged to an identified
// validator.
type KeyOwnerProofSystem interface {
	CheckProof(keyType crypto.KeyTypeID, validator crypto.ValidatorID, proof historical.Proof) (historical.IdentificationTuple, bool)
}

// Identifier returns the full identification of an account in the current
// session.
type Identifier interface {
	IdentificationOf(account crypto.AccountID) (historical.IdentificationTuple, bool)
}

// ConfigSource provides the number of sessions a dispute may be raised for.
type ConfigSource interface {
	DisputePeriod() uint32
}

// WinnersSelection decides whose winners a resolved AgainstValid report
// credits.
type WinnersSelection uint8

const (
	// WinnersForInvalid reads the ForInvalid winners for both kinds.
	WinnersForInvalid WinnersSelection = iota
	// WinnersByKind reads the winners recorded for the report's own kind.
	WinnersByKind
)

func ParseWinnersSelection(s string) (WinnersSelection, error) {
	switch strings.ToLower(s) {
	case "", "for-invalid":
		return WinnersForInvalid, nil
	case "by-kind":
		return WinnersByKind, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWinnersSelection, s)
}

func (w WinnersSelection) String() string {
	if w == WinnersByKind {
		return "by-kind"
	}
	return "for-invalid"
}

func (w WinnersSelection) winnersKind(kind OffenceKind) OffenceKind {
	if w == WinnersByKind {
		return kind
	}
	return ForInvalid
}

// Module turns concluded disputes into offences, either right away or once
// a key ownership proof for a loser is submitted.
type Module struct {
	mu sync.Mutex

	ledger     *Ledger
	sessions   session.Directory
	identifier Identifier
	keyOwners  KeyOwnerProofSystem
	reports    ReportHandler
	config     ConfigSource

	winners WinnersSelection
	weights WeightInfo
}

type Option func(*Module)

func WithWinnersSelection(w WinnersSelection) Option {
	return func(m *Module) {
		m.winners = w
	}
}

func WithWeightInfo(w WeightInfo) Option {
	return func(m *Module) {
		m.weights = w
	}
}

func NewModule(
	ledger *Ledger,
	sessions session.Directory,
	identifier Identifier,
	keyOwners KeyOwnerProofSystem,
	reports ReportHandler,
	config ConfigSource,
	opts ...Option,
) *Module {
	m := &Module{
		ledger:     ledger,
		sessions:   sessions,
		identifier: identifier,
		keyOwners:  keyOwners,
		reports:    reports,
		config:     config,
		winners:    WinnersForInvalid,
		weights:    ZeroWeights{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Ledger() *Ledger {
	return m.ledger
}

// Weights returns the weight table calls are charged with.
func (m *Module) Weights() WeightInfo {
	return m.weights
}

// InitializerInitialize runs at the start of every block.
func (m *Module) InitializerInitialize(now uint64) Weight {
	return 0
}

// InitializerFinalize runs at the end of every block.
func (m *Module) InitializerFinalize() {}

// InitializerOnNewSession drops the ledger entries of the session that just
// left the dispute window.
func (m *Module) InitializerOnNewSession(notification session.ChangeNotification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune(notification.SessionIndex)
}

package slashing

import (
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/pkg/log"
)

// PunishForInvalid handles the losers of a dispute about an invalid candidate.
func (m *Module) PunishForInvalid(idx session.Index, candidate crypto.Hash, losers, winners []session.ValidatorIndex) error {
	return m.punish(ForInvalid, idx, candidate, losers, winners)
}

// PunishAgainstValid handles the losers of a dispute about a valid candidate.
func (m *Module) PunishAgainstValid(idx session.Index, candidate crypto.Hash, losers, winners []session.ValidatorIndex) error {
	return m.punish(AgainstValid, idx, candidate, losers, winners)
}

// punish reports an offence right away when the losers can be identified,
// which is only the case for the current session. Otherwise the losers are
// recorded until a key ownership proof is submitted for each of them.
func (m *Module) punish(kind OffenceKind, idx session.Index, candidate crypto.Hash, losers, winners []session.ValidatorIndex) error {
	loserSet := NewLosers(losers)
	if len(loserSet) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	accounts, err := m.sessions.AccountKeys(idx)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSession) {
			log.Slashing.Debug().Uint32("session", uint32(idx)).Msg("no accounts for disputed session")
			return nil
		}
		return fmt.Errorf("account keys: %w", err)
	}

	winnerAccounts := make(Winners, 0, len(winners))
	for _, w := range winners {
		if int(w) < len(accounts) {
			winnerAccounts = append(winnerAccounts, accounts[w])
		}
	}

	timeSlot := TimeSlot{SessionIndex: idx, CandidateHash: candidate}

	offenders, validatorSetCount, identified, err := m.identify(idx, accounts, loserSet)
	if err != nil {
		return err
	}
	if identified {
		offence := NewOffence(kind, timeSlot, validatorSetCount, offenders...)
		// The first report for a dispute cannot be a duplicate.
		if err := m.reports.ReportOffence(winnerAccounts, offence); err != nil {
			log.Slashing.Debug().Err(err).Stringer("kind", kind).Stringer("slot", timeSlot).Msg("immediate offence report refused")
		}
		offencesReportedImmediately.WithLabelValues(kind.String()).Inc()
		return nil
	}

	if err := m.ledger.Insert(kind, timeSlot, loserSet, winnerAccounts); err != nil {
		return fmt.Errorf("record pending slashes: %w", err)
	}
	disputesDeferred.WithLabelValues(kind.String()).Inc()
	log.Slashing.Debug().
		Stringer("kind", kind).
		Stringer("slot", timeSlot).
		Int("losers", len(loserSet)).
		Msg("deferred dispute slashes")
	return nil
}

// identify resolves the losers of the current session to their full
// identification. Losers that cannot be identified are skipped.
func (m *Module) identify(idx session.Index, accounts []crypto.AccountID, losers Losers) ([]historical.IdentificationTuple, uint32, bool, error) {
	current, err := m.sessions.CurrentIndex()
	if err != nil {
		if errors.Is(err, session.ErrNoCurrentSession) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("current session: %w", err)
	}
	if idx != current {
		return nil, 0, false, nil
	}

	offenders := make([]historical.IdentificationTuple, 0, len(losers))
	for _, l := range losers {
		if int(l) >= len(accounts) {
			continue
		}
		if id, ok := m.identifier.IdentificationOf(accounts[l]); ok {
			offenders = append(offenders, id)
		}
	}
	return offenders, uint32(len(accounts)), true, nil
}

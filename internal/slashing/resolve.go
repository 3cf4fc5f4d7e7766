package slashing

import (
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/session"
)

// ReportDisputeLost applies a late identification of a dispute loser: the
// loser is taken off the ledger and a single-offender offence is reported.
// Nothing is written when an error is returned.
func (m *Module) ReportDisputeLost(call *ReportDisputeLost) error {
	if call == nil {
		return ErrInvalidCall
	}
	proof := call.DisputeProof
	if !proof.Kind.Valid() {
		return ErrInvalidCall
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	offender, ok := m.keyOwners.CheckProof(crypto.ParachainKeyTypeID, proof.ValidatorID, call.KeyOwnerProof)
	if !ok {
		return ErrInvalidKeyOwnershipProof
	}

	info, err := m.sessions.SessionInfo(proof.TimeSlot.SessionIndex)
	if err != nil {
		if errors.Is(err, session.ErrUnknownSession) {
			return ErrInvalidSessionIndex
		}
		return fmt.Errorf("session info: %w", err)
	}
	validator, ok := info.Validator(proof.ValidatorIndex)
	if !ok || validator != proof.ValidatorID {
		return ErrValidatorIndexIdMismatch
	}

	batch := m.ledger.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	if err := m.ledger.stageRemoval(batch, proof.Kind, proof.TimeSlot, proof.ValidatorIndex); err != nil {
		return err
	}
	winners, err := m.ledger.Winners(m.winners.winnersKind(proof.Kind), proof.TimeSlot)
	if err != nil {
		return err
	}

	offence := NewOffence(proof.Kind, proof.TimeSlot, info.TotalValidatorCount(), offender)
	if err := m.reports.ReportOffence(winners, offence); err != nil {
		if errors.Is(err, ErrOffenceAlreadyReported) {
			return ErrDuplicateSlashingReport
		}
		return fmt.Errorf("report offence: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	proofsResolved.WithLabelValues(proof.Kind.String()).Inc()
	return nil
}

package slashing

import (
	"errors"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/pkg/log"
	"github.com/eigerco/slashing/pkg/serialization"
)

var tagSerializer = serialization.NewSCALESerializer()

// ValidateUnsigned decides whether a report may enter the transaction pool.
// Only reports produced by this node or already included in a block are
// accepted, so that only block authors can include them.
func (m *Module) ValidateUnsigned(source TransactionSource, call *ReportDisputeLost) (ValidTransaction, error) {
	if call == nil || !call.DisputeProof.Kind.Valid() {
		return ValidTransaction{}, reject(ErrInvalidCall)
	}
	switch source {
	case SourceLocal, SourceInBlock:
	default:
		log.Slashing.Warn().Stringer("source", source).Msg("rejecting unsigned transaction because it is not local/in-block")
		return ValidTransaction{}, reject(ErrInvalidCall)
	}

	if err := m.isKnownOffence(call); err != nil {
		return ValidTransaction{}, reject(err)
	}

	proof := call.DisputeProof
	tag, err := tagSerializer.Encode(providesTag{
		Prefix:      proof.Kind.TagPrefix(),
		TimeSlot:    proof.TimeSlot,
		ValidatorID: proof.ValidatorID,
	})
	if err != nil {
		return ValidTransaction{}, err
	}
	return ValidTransaction{
		Priority:  MaxPriority,
		Provides:  []TransactionTag{tag},
		Longevity: m.reports.ReportLongevity(),
		Propagate: false,
	}, nil
}

// PreDispatch repeats the staleness check right before a report is
// included in a block.
func (m *Module) PreDispatch(call *ReportDisputeLost) error {
	if call == nil || !call.DisputeProof.Kind.Valid() {
		return reject(ErrInvalidCall)
	}
	if err := m.isKnownOffence(call); err != nil {
		return reject(err)
	}
	return nil
}

// isKnownOffence fails with ErrBadProof when the ownership proof does not
// check and with ErrStale when the offender was already reported.
func (m *Module) isKnownOffence(call *ReportDisputeLost) error {
	proof := call.DisputeProof
	offender, ok := m.keyOwners.CheckProof(crypto.ParachainKeyTypeID, proof.ValidatorID, call.KeyOwnerProof)
	if !ok {
		return ErrBadProof
	}
	if m.reports.IsKnownOffence(proof.Kind, []historical.IdentificationTuple{offender}, proof.TimeSlot) {
		return ErrStale
	}
	return nil
}

func reject(err error) error {
	var invalid TransactionValidityError
	if errors.As(err, &invalid) {
		admissionRejections.WithLabelValues(invalid.Invalid.String()).Inc()
	}
	return err
}

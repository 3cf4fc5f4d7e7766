package slashing

import (
	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/pkg/log"
)

// OffenceSink receives offences and knows which ones it has seen.
type OffenceSink interface {
	// ReportOffence returns ErrOffenceAlreadyReported if every offender has
	// already been reported for the offence's kind and time slot.
	ReportOffence(reporters []crypto.AccountID, offence Offence) error
	IsKnownOffence(kind OffenceKind, offenders []historical.IdentificationTuple, timeSlot TimeSlot) bool
}

// TransactionSubmitter hands a locally produced unsigned call to the
// transaction pool.
type TransactionSubmitter interface {
	SubmitUnsigned(call *ReportDisputeLost) error
}

// ReportHandler reports validated offences and submits slashing reports
// from an offchain context.
type ReportHandler interface {
	OffenceSink
	// ReportLongevity is the number of blocks a report stays valid in the
	// pool.
	ReportLongevity() uint64
	SubmitUnsignedSlashingReport(proof DisputeProof, keyOwnerProof historical.Proof) error
}

var (
	_ ReportHandler = (*SlashingReportHandler)(nil)
	_ ReportHandler = NoopReportHandler{}
)

// SlashingReportHandler forwards offences to a sink and submits reports as
// local unsigned transactions.
type SlashingReportHandler struct {
	sink      OffenceSink
	longevity uint64
	submitter TransactionSubmitter
}

func NewSlashingReportHandler(sink OffenceSink, longevity uint64, submitter TransactionSubmitter) *SlashingReportHandler {
	return &SlashingReportHandler{sink: sink, longevity: longevity, submitter: submitter}
}

func (h *SlashingReportHandler) ReportOffence(reporters []crypto.AccountID, offence Offence) error {
	return h.sink.ReportOffence(reporters, offence)
}

func (h *SlashingReportHandler) IsKnownOffence(kind OffenceKind, offenders []historical.IdentificationTuple, timeSlot TimeSlot) bool {
	return h.sink.IsKnownOffence(kind, offenders, timeSlot)
}

func (h *SlashingReportHandler) ReportLongevity() uint64 {
	return h.longevity
}

// SubmitUnsignedSlashingReport logs a failed submission instead of
// returning it; the report is retried on the next offchain run.
func (h *SlashingReportHandler) SubmitUnsignedSlashingReport(proof DisputeProof, keyOwnerProof historical.Proof) error {
	call := &ReportDisputeLost{DisputeProof: proof, KeyOwnerProof: keyOwnerProof}

	if err := h.submitter.SubmitUnsigned(call); err != nil {
		log.Slashing.Error().
			Err(err).
			Uint32("session", uint32(proof.TimeSlot.SessionIndex)).
			Uint32("index", uint32(proof.ValidatorIndex)).
			Stringer("kind", proof.Kind).
			Msg("Error submitting dispute slashing report")
		return nil
	}
	log.Slashing.Info().
		Uint32("session", uint32(proof.TimeSlot.SessionIndex)).
		Uint32("index", uint32(proof.ValidatorIndex)).
		Stringer("kind", proof.Kind).
		Msg("Submitted dispute slashing report")
	return nil
}

// NoopReportHandler accepts every offence, considers every offence known
// and never submits anything. With it, every report is stale.
type NoopReportHandler struct{}

func (NoopReportHandler) ReportOffence([]crypto.AccountID, Offence) error {
	return nil
}

func (NoopReportHandler) IsKnownOffence(OffenceKind, []historical.IdentificationTuple, TimeSlot) bool {
	return true
}

func (NoopReportHandler) ReportLongevity() uint64 {
	return 0
}

func (NoopReportHandler) SubmitUnsignedSlashingReport(DisputeProof, historical.Proof) error {
	return nil
}

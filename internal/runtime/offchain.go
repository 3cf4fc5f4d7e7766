package runtime

import (
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/log"
)

// SubmitUnappliedSlashes proves the ownership of every pending loser's key
// and submits a report for it. It returns the number of reports handed to
// the report handler.
func (r *Runtime) SubmitUnappliedSlashes() (int, error) {
	pending, err := r.Pending()
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, p := range pending {
		info, err := r.Sessions.SessionInfo(p.TimeSlot.SessionIndex)
		if err != nil {
			if errors.Is(err, session.ErrUnknownSession) {
				continue
			}
			return submitted, fmt.Errorf("session info: %w", err)
		}
		for _, loser := range p.Losers {
			validator, ok := info.Validator(loser)
			if !ok {
				continue
			}
			proof, err := r.Historical.Prove(p.TimeSlot.SessionIndex, validator)
			if err != nil {
				if errors.Is(err, historical.ErrSessionNotNoted) || errors.Is(err, historical.ErrNotAMember) {
					log.Root.Debug().Err(err).Stringer("slot", p.TimeSlot).Msg("cannot prove key ownership")
					continue
				}
				return submitted, err
			}
			dispute := slashing.DisputeProof{
				TimeSlot:       p.TimeSlot,
				Kind:           p.Kind,
				ValidatorIndex: loser,
				ValidatorID:    validator,
			}
			if err := r.Reports.SubmitUnsignedSlashingReport(dispute, proof); err != nil {
				return submitted, err
			}
			submitted++
		}
	}
	return submitted, nil
}

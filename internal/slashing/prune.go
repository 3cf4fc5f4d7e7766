package slashing

import (
	"github.com/eigerco/slashing/internal/safemath"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/pkg/log"
)

// prune drops the entries of the session that can no longer be disputed.
// Entries still pending at that point are never slashed.
func (m *Module) prune(current session.Index) {
	period := m.config.DisputePeriod()
	window, ok := safemath.Add32(period, 1)
	if !ok || uint32(current) <= window {
		return
	}
	old := current - session.Index(window)

	removed, err := m.ledger.PruneSession(old)
	if err != nil {
		log.Slashing.Error().Err(err).Uint32("session", uint32(old)).Msg("failed to prune pending slashes")
		return
	}
	for _, kind := range Kinds() {
		n := removed[kind]
		if n == 0 {
			continue
		}
		pendingPruned.WithLabelValues(kind.String()).Add(float64(n))
		log.Slashing.Warn().
			Uint32("session", uint32(old)).
			Msgf("No slashing for %d validators that lost a %s dispute", n, kind)
	}
}

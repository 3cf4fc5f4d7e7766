package main

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/disputes"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/runtime"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/log"
)

const (
	disputedSession session.Index = 10
	loserIndex                    = 3
	winnerIndex                   = 5
)

// devnetMembers derives deterministic validator keys so every run produces
// the same accounts.
func devnetMembers(n uint32) ([]historical.Member, error) {
	members := make([]historical.Member, n)
	for i := uint32(0); i < n; i++ {
		seed := make([]byte, ed25519.SeedSize)
		copy(seed, "slashing-devnet")
		binary.BigEndian.PutUint32(seed[ed25519.SeedSize-4:], i)
		key := ed25519.NewKeyFromSeed(seed)

		validator, err := crypto.ValidatorIDFromPublicKey(key.Public().(ed25519.PublicKey))
		if err != nil {
			return nil, err
		}
		members[i] = historical.Member{
			Account:   crypto.AccountID(crypto.HashData(validator[:])),
			Validator: validator,
			Exposure:  historical.Exposure{Own: 1_000_000, Total: 10_000_000},
		}
	}
	return members, nil
}

func simulateCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	n := uint32(c.Uint("validators"))
	if n <= winnerIndex {
		return fmt.Errorf("at least %d validators are needed", winnerIndex+1)
	}
	members, err := devnetMembers(n)
	if err != nil {
		return err
	}
	r, closeStore, err := openRuntime(cfg, c.String("dir"))
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	rotateTo := func(idx session.Index) error {
		current, err := r.Sessions.CurrentIndex()
		switch {
		case errors.Is(err, session.ErrNoCurrentSession):
			current = 0
		case err != nil:
			return err
		}
		for s := current + 1; s <= idx; s++ {
			if err := r.NewSession(runtime.SessionSetup{Index: s, Members: members}); err != nil {
				return err
			}
		}
		return nil
	}

	if err := rotateTo(disputedSession + 2); err != nil {
		return err
	}
	candidate := crypto.HashData([]byte("disputed candidate"))
	err = r.ConcludeDispute(disputes.Outcome{
		Session:      disputedSession,
		Candidate:    candidate,
		Valid:        false,
		VotedValid:   []session.ValidatorIndex{loserIndex},
		VotedInvalid: []session.ValidatorIndex{winnerIndex},
	})
	if err != nil {
		return err
	}
	log.Root.Info().Stringer("candidate", candidate).Msg("dispute concluded against the candidate")

	submitted, err := r.SubmitUnappliedSlashes()
	if err != nil {
		return err
	}
	block := r.ProduceBlock()
	for _, ext := range block.Extrinsics {
		if ext.Err != nil {
			log.Root.Warn().Err(ext.Err).Msg("report not applied")
		}
	}

	slot := slashing.TimeSlot{SessionIndex: disputedSession, CandidateHash: candidate}
	records, err := r.Offences.Reports(slashing.ForInvalid, slot)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("offence %s at %s: offender %s, fraction %s, disable %s, reporters %v\n",
			rec.Kind, rec.TimeSlot, rec.Offender.Account, rec.SlashFraction, rec.DisableStrategy, rec.Reporters)
	}

	// leave a second dispute unresolved so the rollover has something to drop
	err = r.ConcludeDispute(disputes.Outcome{
		Session:      disputedSession,
		Candidate:    crypto.HashData([]byte("valid candidate")),
		Valid:        true,
		VotedValid:   []session.ValidatorIndex{winnerIndex},
		VotedInvalid: []session.ValidatorIndex{loserIndex},
	})
	if err != nil {
		return err
	}
	last := disputedSession + session.Index(cfg.DisputePeriod()) + 1
	if err := rotateTo(last); err != nil {
		return err
	}
	pending, err := r.Pending()
	if err != nil {
		return err
	}
	fmt.Printf("submitted %d reports, block %d applied %d, %d pending after session %d\n",
		submitted, block.Number, len(block.Extrinsics), len(pending), last)

	if c.Bool("metrics") {
		return printMetrics()
	}
	return nil
}

func printMetrics() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%q ", l.GetName(), l.GetValue())
			}
			fmt.Printf("%s {%s} %g\n", mf.GetName(), labels, value)
		}
	}
	return nil
}

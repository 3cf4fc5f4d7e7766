package disputes

import (
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/session"
)

var (
	ErrNoSupermajority     = errors.New("dispute has not concluded")
	ErrDuplicateJudgement  = errors.New("validator judged twice")
	ErrJudgementOutOfRange = errors.New("judgement from unknown validator index")
)

// Judgement is one validator's vote on a disputed candidate.
type Judgement struct {
	ValidatorIndex session.ValidatorIndex
	Valid          bool
}

// Verdict is the set of judgements collected for a candidate.
type Verdict struct {
	Session    session.Index
	Candidate  crypto.Hash
	Judgements []Judgement
}

// Outcome is a concluded dispute about a candidate.
type Outcome struct {
	Session      session.Index
	Candidate    crypto.Hash
	Valid        bool
	VotedValid   []session.ValidatorIndex
	VotedInvalid []session.ValidatorIndex
}

// Losers are the validators on the side the dispute concluded against.
func (o Outcome) Losers() []session.ValidatorIndex {
	if o.Valid {
		return o.VotedInvalid
	}
	return o.VotedValid
}

// Winners are the validators on the side the dispute concluded for.
func (o Outcome) Winners() []session.ValidatorIndex {
	if o.Valid {
		return o.VotedValid
	}
	return o.VotedInvalid
}

// Supermajority is the number of votes a side needs out of n validators
// for the dispute to conclude in its favour.
func Supermajority(n int) int {
	return 2*n/3 + 1
}

// Conclude tallies a verdict from a session of validatorCount validators.
func Conclude(v Verdict, validatorCount int) (Outcome, error) {
	outcome := Outcome{Session: v.Session, Candidate: v.Candidate}
	seen := make(map[session.ValidatorIndex]struct{}, len(v.Judgements))
	for _, j := range v.Judgements {
		if int(j.ValidatorIndex) >= validatorCount {
			return Outcome{}, fmt.Errorf("%w: %d", ErrJudgementOutOfRange, j.ValidatorIndex)
		}
		if _, ok := seen[j.ValidatorIndex]; ok {
			return Outcome{}, fmt.Errorf("%w: %d", ErrDuplicateJudgement, j.ValidatorIndex)
		}
		seen[j.ValidatorIndex] = struct{}{}

		if j.Valid {
			outcome.VotedValid = append(outcome.VotedValid, j.ValidatorIndex)
		} else {
			outcome.VotedInvalid = append(outcome.VotedInvalid, j.ValidatorIndex)
		}
	}

	threshold := Supermajority(validatorCount)
	switch {
	case len(outcome.VotedValid) >= threshold:
		outcome.Valid = true
	case len(outcome.VotedInvalid) >= threshold:
		outcome.Valid = false
	default:
		return Outcome{}, ErrNoSupermajority
	}
	return outcome, nil
}

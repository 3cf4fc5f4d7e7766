package slashing

import (
	"errors"
	"fmt"
)

// Errors returned when a lost dispute report cannot be applied. None of
// them leave side effects behind.
var (
	ErrInvalidKeyOwnershipProof = errors.New("invalid key ownership proof")
	ErrInvalidSessionIndex      = errors.New("session index is too old or invalid")
	ErrInvalidCandidateHash     = errors.New("no pending slash for the candidate hash")
	ErrInvalidValidatorIndex    = errors.New("no pending slash for the validator index")
	ErrValidatorIndexIdMismatch = errors.New("validator index does not match validator id")
	ErrDuplicateSlashingReport  = errors.New("slashing report already reported")
)

// ErrOffenceAlreadyReported must be returned by an OffenceSink that has
// already seen every offender of an offence at its time slot.
var ErrOffenceAlreadyReported = errors.New("offence already reported")

var ErrUnknownWinnersSelection = errors.New("unknown winners selection")

// InvalidTransaction is the reason a report is refused by the pool or at
// inclusion.
type InvalidTransaction uint8

const (
	InvalidCall InvalidTransaction = iota
	InvalidBadProof
	InvalidStale
)

func (i InvalidTransaction) String() string {
	switch i {
	case InvalidCall:
		return "call"
	case InvalidBadProof:
		return "bad proof"
	case InvalidStale:
		return "stale"
	}
	return fmt.Sprintf("InvalidTransaction(%d)", uint8(i))
}

// TransactionValidityError is returned by the admission checks.
type TransactionValidityError struct {
	Invalid InvalidTransaction
}

func (e TransactionValidityError) Error() string {
	return "invalid transaction: " + e.Invalid.String()
}

var (
	ErrInvalidCall = TransactionValidityError{Invalid: InvalidCall}
	ErrBadProof    = TransactionValidityError{Invalid: InvalidBadProof}
	ErrStale       = TransactionValidityError{Invalid: InvalidStale}
)

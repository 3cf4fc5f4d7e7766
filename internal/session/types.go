package session

import (
	"github.com/eigerco/slashing/internal/crypto"
)

// Index identifies a validator-set epoch. It only ever increases.
type Index uint32

// ValidatorIndex is a position in one session's validator list and means
// nothing outside that session.
type ValidatorIndex uint32

// Info is what is kept about a past or current session.
type Info struct {
	// Validators are the parachain session keys, in validator index order.
	Validators []crypto.ValidatorID
	// DiscoveryKeys counts every validator of the session, including the
	// ones not assigned to parachain work.
	DiscoveryKeys uint32
}

// TotalValidatorCount is the size of the whole validator set of the session.
func (i Info) TotalValidatorCount() uint32 {
	return i.DiscoveryKeys
}

// Validator returns the session key at index, if any.
func (i Info) Validator(index ValidatorIndex) (crypto.ValidatorID, bool) {
	if int(index) >= len(i.Validators) {
		return crypto.ValidatorID{}, false
	}
	return i.Validators[index], true
}

// ChangeNotification is delivered once per session rollover.
type ChangeNotification struct {
	SessionIndex Index
	Validators   []crypto.ValidatorID
}

// Directory resolves sessions to their validator sets.
type Directory interface {
	// AccountKeys returns the accounts of the session in validator index
	// order, or ErrUnknownSession.
	AccountKeys(idx Index) ([]crypto.AccountID, error)
	// SessionInfo returns the session metadata, or ErrUnknownSession.
	SessionInfo(idx Index) (Info, error)
	// CurrentIndex is the session the validator set is in right now.
	CurrentIndex() (Index, error)
}

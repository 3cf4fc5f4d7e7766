package historical

import (
	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/session"
)

// Exposure is the stake backing a validator in a session.
type Exposure struct {
	Own   uint64
	Total uint64
}

// IdentificationTuple is the full identification of a validator: its
// account together with the exposure slashing is computed from.
type IdentificationTuple struct {
	Account  crypto.AccountID
	Exposure Exposure
}

// Member is one validator of a session as committed to by the session root.
type Member struct {
	Account   crypto.AccountID
	Validator crypto.ValidatorID
	Exposure  Exposure
}

// Proof shows that a session key belonged to an identified validator in a
// given session.
type Proof struct {
	SessionIndex      session.Index
	ValidatorSetCount uint32
	LeafIndex         uint32
	Trace             [][]byte
	Identification    IdentificationTuple
}

// Session is the session the proof was generated for.
func (p Proof) Session() session.Index {
	return p.SessionIndex
}

// ValidatorCount is the validator set size of the proof's session.
func (p Proof) ValidatorCount() uint32 {
	return p.ValidatorSetCount
}

type leaf struct {
	KeyType   crypto.KeyTypeID
	Validator crypto.ValidatorID
	Account   crypto.AccountID
	Exposure  Exposure
}

package slashing

import (
	"bytes"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
	"github.com/eigerco/slashing/internal/session"
)

// Kind identifies an offence type to the offence sink.
type Kind [16]byte

func (k Kind) String() string {
	return string(k[:])
}

// Perbill is a fraction in parts per billion.
type Perbill uint32

const PerbillOne Perbill = 1_000_000_000

func PerbillFromPercent(p uint32) Perbill {
	if p > 100 {
		p = 100
	}
	return Perbill(p) * (PerbillOne / 100)
}

func (p Perbill) String() string {
	return fmt.Sprintf("%d.%07d%%", p/(PerbillOne/100), p%(PerbillOne/100))
}

// DisableStrategy tells the offence sink whether an offender is disabled.
type DisableStrategy uint8

const (
	DisableNever DisableStrategy = iota
	DisableWhenSlashed
	DisableAlways
)

func (d DisableStrategy) String() string {
	switch d {
	case DisableNever:
		return "never"
	case DisableWhenSlashed:
		return "when-slashed"
	case DisableAlways:
		return "always"
	}
	return fmt.Sprintf("DisableStrategy(%d)", uint8(d))
}

// OffenceKind is the outcome a validator was on the losing side of.
type OffenceKind uint8

const (
	// ForInvalid is filed against validators that backed or approved a
	// candidate that was disputed and found invalid.
	ForInvalid OffenceKind = iota
	// AgainstValid is filed against validators that disputed a candidate
	// that turned out valid.
	AgainstValid
)

type kindInfo struct {
	name      string
	id        Kind
	tagPrefix string
	fraction  Perbill
	disable   DisableStrategy
}

var kinds = [...]kindInfo{
	ForInvalid: {
		name:      "ForInvalid",
		id:        Kind([]byte("disputes:invalid")),
		tagPrefix: "DisputeForInvalid",
		fraction:  PerbillFromPercent(100),
		disable:   DisableAlways,
	},
	AgainstValid: {
		name:      "AgainstValid",
		id:        Kind([]byte("disputes:valid::")),
		tagPrefix: "DisputeAgainstValid",
		fraction:  PerbillFromPercent(1),
		disable:   DisableNever,
	},
}

// Kinds lists every offence kind in encoding order.
func Kinds() []OffenceKind {
	return []OffenceKind{ForInvalid, AgainstValid}
}

func (k OffenceKind) Valid() bool {
	return int(k) < len(kinds)
}

func (k OffenceKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("OffenceKind(%d)", uint8(k))
	}
	return kinds[k].name
}

func (k OffenceKind) ID() Kind {
	return kinds[k].id
}

// TagPrefix is the prefix of the pool tags a report of this kind provides.
func (k OffenceKind) TagPrefix() string {
	return kinds[k].tagPrefix
}

// SlashFraction does not depend on the number of offenders or on the size
// of the validator set.
func (k OffenceKind) SlashFraction(offenders, validatorSetCount uint32) Perbill {
	return kinds[k].fraction
}

func (k OffenceKind) DisableStrategy() DisableStrategy {
	return kinds[k].disable
}

// TimeSlot identifies a dispute and deduplicates offences reported for it.
type TimeSlot struct {
	SessionIndex  session.Index
	CandidateHash crypto.Hash
}

// Compare orders time slots by session and then by candidate hash.
func (t TimeSlot) Compare(other TimeSlot) int {
	switch {
	case t.SessionIndex < other.SessionIndex:
		return -1
	case t.SessionIndex > other.SessionIndex:
		return 1
	}
	return bytes.Compare(t.CandidateHash[:], other.CandidateHash[:])
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%d/%s", t.SessionIndex, t.CandidateHash)
}

// Offence is a lost dispute turned into something the offence sink can act on.
type Offence struct {
	Kind OffenceKind
	// ValidatorSetCount counts every validator of the session, not only the
	// parachain validators.
	ValidatorSetCount uint32
	TimeSlot          TimeSlot
	Offenders         []historical.IdentificationTuple
}

func NewOffence(kind OffenceKind, timeSlot TimeSlot, validatorSetCount uint32, offenders ...historical.IdentificationTuple) Offence {
	return Offence{
		Kind:              kind,
		ValidatorSetCount: validatorSetCount,
		TimeSlot:          timeSlot,
		Offenders:         offenders,
	}
}

func (o Offence) ID() Kind {
	return o.Kind.ID()
}

func (o Offence) SessionIndex() session.Index {
	return o.TimeSlot.SessionIndex
}

func (o Offence) SlashFraction() Perbill {
	return o.Kind.SlashFraction(uint32(len(o.Offenders)), o.ValidatorSetCount)
}

func (o Offence) DisableStrategy() DisableStrategy {
	return o.Kind.DisableStrategy()
}

// DisputeProof identifies one loser of a dispute recorded in the ledger.
type DisputeProof struct {
	TimeSlot       TimeSlot
	Kind           OffenceKind
	ValidatorIndex session.ValidatorIndex
	ValidatorID    crypto.ValidatorID
}

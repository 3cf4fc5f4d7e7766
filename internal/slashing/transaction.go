package slashing

import (
	"math"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
)

// TransactionSource is where a transaction entered the node from.
type TransactionSource uint8

const (
	// SourceInBlock transactions are already part of a block being imported.
	SourceInBlock TransactionSource = iota
	// SourceLocal transactions were produced by this node.
	SourceLocal
	// SourceExternal transactions were received from the network.
	SourceExternal
)

func (s TransactionSource) String() string {
	switch s {
	case SourceInBlock:
		return "in-block"
	case SourceLocal:
		return "local"
	case SourceExternal:
		return "external"
	}
	return "unknown"
}

type TransactionPriority = uint64

const MaxPriority TransactionPriority = math.MaxUint64

type TransactionTag []byte

// ValidTransaction describes how the pool should treat an admitted
// transaction.
type ValidTransaction struct {
	Priority  TransactionPriority
	Requires  []TransactionTag
	Provides  []TransactionTag
	Longevity uint64
	Propagate bool
}

// ReportDisputeLost is the unsigned call carrying a late identification of
// a dispute loser.
type ReportDisputeLost struct {
	DisputeProof  DisputeProof
	KeyOwnerProof historical.Proof
}

// DispatchInfo is the weight a call declares and whether it pays fees.
type DispatchInfo struct {
	Weight  Weight
	PaysFee bool
}

// Info reports the call's weight. Reports never pay a fee.
func (c *ReportDisputeLost) Info(weights WeightInfo) DispatchInfo {
	return DispatchInfo{
		Weight:  weights.ReportDisputeLost(c.KeyOwnerProof.ValidatorCount()),
		PaysFee: false,
	}
}

type providesTag struct {
	Prefix      string
	TimeSlot    TimeSlot
	ValidatorID crypto.ValidatorID
}

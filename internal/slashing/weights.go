package slashing

type Weight uint64

type WeightInfo interface {
	ReportDisputeLost(validatorCount uint32) Weight
}

// LinearWeights charges a base weight plus a per-validator weight for the
// ownership proof check.
type LinearWeights struct {
	Base         Weight
	PerValidator Weight
}

func (w LinearWeights) ReportDisputeLost(validatorCount uint32) Weight {
	return w.Base + w.PerValidator*Weight(validatorCount)
}

// ZeroWeights declares every call free.
type ZeroWeights struct{}

func (ZeroWeights) ReportDisputeLost(uint32) Weight {
	return 0
}

package runtime

import (
	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/log"
)

// Extrinsic is a report included in a block together with its outcome.
type Extrinsic struct {
	Hash crypto.Hash
	Call *slashing.ReportDisputeLost
	Info slashing.DispatchInfo
	Err  error
}

type Block struct {
	Number     uint64
	Extrinsics []Extrinsic
	Weight     slashing.Weight
}

// ProduceBlock builds the next block from the pool. Reports that are no
// longer valid are dropped instead of included.
func (r *Runtime) ProduceBlock() Block {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.block++
	block := Block{Number: r.block}
	block.Weight = r.Slashing.InitializerInitialize(r.block)
	r.Pool.NewBlock(r.block)

	var handled []crypto.Hash
	for _, tx := range r.Pool.Ready() {
		handled = append(handled, tx.Hash)
		if err := r.Slashing.PreDispatch(tx.Call); err != nil {
			log.Root.Debug().Err(err).Stringer("hash", tx.Hash).Msg("dropping report at inclusion")
			continue
		}
		ext := r.dispatch(tx.Hash, tx.Call)
		block.Weight += ext.Info.Weight
		block.Extrinsics = append(block.Extrinsics, ext)
	}
	r.Pool.Remove(handled...)

	r.Slashing.InitializerFinalize()
	log.Root.Info().
		Uint64("block", block.Number).
		Int("extrinsics", len(block.Extrinsics)).
		Msg("block produced")
	return block
}

// ImportBlock applies reports authored by another node. Each report is
// validated as already in a block before it is dispatched.
func (r *Runtime) ImportBlock(calls []*slashing.ReportDisputeLost) Block {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.block++
	block := Block{Number: r.block}
	block.Weight = r.Slashing.InitializerInitialize(r.block)

	for _, call := range calls {
		if _, err := r.Slashing.ValidateUnsigned(slashing.SourceInBlock, call); err != nil {
			block.Extrinsics = append(block.Extrinsics, Extrinsic{Call: call, Err: err})
			continue
		}
		if err := r.Slashing.PreDispatch(call); err != nil {
			block.Extrinsics = append(block.Extrinsics, Extrinsic{Call: call, Err: err})
			continue
		}
		ext := r.dispatch(crypto.Hash{}, call)
		block.Weight += ext.Info.Weight
		block.Extrinsics = append(block.Extrinsics, ext)
	}
	r.Pool.NewBlock(r.block)

	r.Slashing.InitializerFinalize()
	return block
}

func (r *Runtime) dispatch(hash crypto.Hash, call *slashing.ReportDisputeLost) Extrinsic {
	ext := Extrinsic{
		Hash: hash,
		Call: call,
		Info: call.Info(r.Slashing.Weights()),
	}
	ext.Err = r.Slashing.ReportDisputeLost(call)
	if ext.Err != nil {
		log.Root.Warn().
			Err(ext.Err).
			Stringer("slot", call.DisputeProof.TimeSlot).
			Uint32("index", uint32(call.DisputeProof.ValidatorIndex)).
			Msg("slashing report failed")
	}
	return ext
}

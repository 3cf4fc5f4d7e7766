package txpool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/safemath"
	"github.com/eigerco/slashing/internal/slashing"
	"github.com/eigerco/slashing/pkg/log"
	"github.com/eigerco/slashing/pkg/serialization"
)

// Validator runs the admission checks of unsigned calls.
type Validator interface {
	ValidateUnsigned(source slashing.TransactionSource, call *slashing.ReportDisputeLost) (slashing.ValidTransaction, error)
}

// Transaction is an admitted call waiting for inclusion.
type Transaction struct {
	Hash   crypto.Hash
	Call   *slashing.ReportDisputeLost
	Source slashing.TransactionSource
	Valid  slashing.ValidTransaction
	// ValidTill is the last block the transaction may be included in.
	ValidTill uint64

	seq uint64
}

var _ slashing.TransactionSubmitter = (*Pool)(nil)

// Pool holds unsigned slashing reports until a block includes them.
type Pool struct {
	mu         sync.Mutex
	validator  Validator
	serializer *serialization.Serializer

	byHash map[crypto.Hash]*Transaction
	byTag  map[string]crypto.Hash
	block  uint64
	seq    uint64
}

func New(validator Validator) *Pool {
	return &Pool{
		validator:  validator,
		serializer: serialization.NewSCALESerializer(),
		byHash:     make(map[crypto.Hash]*Transaction),
		byTag:      make(map[string]crypto.Hash),
	}
}

// SubmitUnsigned submits a call produced by this node.
func (p *Pool) SubmitUnsigned(call *slashing.ReportDisputeLost) error {
	_, err := p.Submit(slashing.SourceLocal, call)
	return err
}

// Submit validates a call and adds it to the pool.
func (p *Pool) Submit(source slashing.TransactionSource, call *slashing.ReportDisputeLost) (crypto.Hash, error) {
	hash, err := p.hash(call)
	if err != nil {
		return crypto.Hash{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byHash[hash]; ok {
		return crypto.Hash{}, ErrAlreadyImported
	}
	valid, err := p.validator.ValidateUnsigned(source, call)
	if err != nil {
		log.Pool.Debug().Err(err).Stringer("hash", hash).Stringer("source", source).Msg("transaction rejected")
		return crypto.Hash{}, err
	}
	for _, tag := range valid.Provides {
		if owner, ok := p.byTag[string(tag)]; ok {
			return crypto.Hash{}, fmt.Errorf("%w: %s", ErrTagAlreadyInPool, owner)
		}
	}

	p.seq++
	tx := &Transaction{
		Hash:      hash,
		Call:      call,
		Source:    source,
		Valid:     valid,
		ValidTill: safemath.SaturatingAdd64(p.block, valid.Longevity),
		seq:       p.seq,
	}
	p.byHash[hash] = tx
	for _, tag := range valid.Provides {
		p.byTag[string(tag)] = hash
	}
	poolSize.Set(float64(len(p.byHash)))

	log.Pool.Debug().
		Stringer("hash", hash).
		Stringer("source", source).
		Uint64("validTill", tx.ValidTill).
		Msg("transaction imported")
	return hash, nil
}

// Ready returns the pooled transactions, highest priority first and in
// import order for equal priorities.
func (p *Pool) Ready() []*Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	ready := make([]*Transaction, 0, len(p.byHash))
	for _, tx := range p.byHash {
		ready = append(ready, tx)
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].Valid.Priority != ready[j].Valid.Priority {
			return ready[i].Valid.Priority > ready[j].Valid.Priority
		}
		return ready[i].seq < ready[j].seq
	})
	return ready
}

// Propagatable returns the transactions that may be gossiped to peers.
func (p *Pool) Propagatable() []*Transaction {
	var out []*Transaction
	for _, tx := range p.Ready() {
		if tx.Valid.Propagate {
			out = append(out, tx)
		}
	}
	return out
}

func (p *Pool) Get(hash crypto.Hash) (*Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, ok := p.byHash[hash]
	return tx, ok
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.byHash)
}

// Remove drops transactions, typically once a block has included them.
func (p *Pool) Remove(hashes ...crypto.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, hash := range hashes {
		p.remove(hash, "included")
	}
}

// NewBlock advances the pool to block number, drops transactions whose
// longevity ran out and revalidates the rest.
func (p *Pool) NewBlock(number uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.block = number
	for hash, tx := range p.byHash {
		if number > tx.ValidTill {
			p.remove(hash, "expired")
			continue
		}
		if _, err := p.validator.ValidateUnsigned(tx.Source, tx.Call); err != nil {
			log.Pool.Debug().Err(err).Stringer("hash", hash).Msg("transaction no longer valid")
			p.remove(hash, "invalid")
		}
	}
}

func (p *Pool) remove(hash crypto.Hash, reason string) {
	tx, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	for _, tag := range tx.Valid.Provides {
		if p.byTag[string(tag)] == hash {
			delete(p.byTag, string(tag))
		}
	}
	poolDropped.WithLabelValues(reason).Inc()
	poolSize.Set(float64(len(p.byHash)))
}

func (p *Pool) hash(call *slashing.ReportDisputeLost) (crypto.Hash, error) {
	if call == nil {
		return crypto.Hash{}, slashing.ErrInvalidCall
	}
	b, err := p.serializer.Encode(*call)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashData(b), nil
}

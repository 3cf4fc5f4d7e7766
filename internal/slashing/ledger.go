package slashing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/pkg/db"
	"github.com/eigerco/slashing/pkg/db/pebble"
	"github.com/eigerco/slashing/pkg/serialization"
)

const (
	prefixPending byte = iota + 0x40
	prefixWinners
)

// Losers is a set of validator indices kept in ascending order.
type Losers []session.ValidatorIndex

func NewLosers(indices []session.ValidatorIndex) Losers {
	losers := slices.Clone(indices)
	slices.Sort(losers)
	return slices.Compact(losers)
}

func (l Losers) Contains(idx session.ValidatorIndex) bool {
	_, found := slices.BinarySearch(l, idx)
	return found
}

func (l Losers) without(idx session.ValidatorIndex) (Losers, bool) {
	i, found := slices.BinarySearch(l, idx)
	if !found {
		return l, false
	}
	return slices.Delete(slices.Clone(l), i, i+1), true
}

// Winners are the accounts on the winning side of a dispute, in the order
// the dispute reported them.
type Winners []crypto.AccountID

// PendingSlashes is a dispute whose losers could not be identified when it
// concluded.
type PendingSlashes struct {
	Kind     OffenceKind
	TimeSlot TimeSlot
	Losers   Losers
	Winners  Winners
}

// Ledger stores pending slashes keyed by (kind, session, candidate).
type Ledger struct {
	db         db.KVStore
	serializer *serialization.Serializer
}

func NewLedger(kv db.KVStore) *Ledger {
	return &Ledger{db: kv, serializer: serialization.NewSCALESerializer()}
}

// Insert records the losers and winners of a dispute, replacing any
// previous entry for the same key.
func (l *Ledger) Insert(kind OffenceKind, timeSlot TimeSlot, losers Losers, winners Winners) error {
	losersBytes, err := l.serializer.Encode(losers)
	if err != nil {
		return err
	}
	winnersBytes, err := l.serializer.Encode(winners)
	if err != nil {
		return err
	}

	batch := l.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	if err := batch.Put(ledgerKey(prefixPending, kind, timeSlot), losersBytes); err != nil {
		return fmt.Errorf("store losers: %w", err)
	}
	if err := batch.Put(ledgerKey(prefixWinners, kind, timeSlot), winnersBytes); err != nil {
		return fmt.Errorf("store winners: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Losers returns the pending losers of a dispute. The boolean is false when
// there is no entry.
func (l *Ledger) Losers(kind OffenceKind, timeSlot TimeSlot) (Losers, bool, error) {
	var losers Losers
	found, err := l.get(ledgerKey(prefixPending, kind, timeSlot), &losers)
	return losers, found, err
}

// Winners returns the winners recorded for a dispute, or none.
func (l *Ledger) Winners(kind OffenceKind, timeSlot TimeSlot) (Winners, error) {
	var winners Winners
	if _, err := l.get(ledgerKey(prefixWinners, kind, timeSlot), &winners); err != nil {
		return nil, err
	}
	return winners, nil
}

// stageRemoval writes the removal of one loser into batch. The entry is
// deleted once its last loser is removed.
func (l *Ledger) stageRemoval(batch db.Batch, kind OffenceKind, timeSlot TimeSlot, idx session.ValidatorIndex) error {
	losers, found, err := l.Losers(kind, timeSlot)
	if err != nil {
		return err
	}
	if !found {
		return ErrInvalidCandidateHash
	}
	remaining, removed := losers.without(idx)
	if !removed {
		return ErrInvalidValidatorIndex
	}

	key := ledgerKey(prefixPending, kind, timeSlot)
	if len(remaining) == 0 {
		if err := batch.Delete(key); err != nil {
			return fmt.Errorf("delete losers: %w", err)
		}
		return nil
	}
	b, err := l.serializer.Encode(remaining)
	if err != nil {
		return err
	}
	if err := batch.Put(key, b); err != nil {
		return fmt.Errorf("store losers: %w", err)
	}
	return nil
}

// PruneSession deletes every entry of the session, for both kinds, and
// returns how many pending entries of each kind were dropped.
func (l *Ledger) PruneSession(idx session.Index) (map[OffenceKind]int, error) {
	batch := l.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	removed := make(map[OffenceKind]int, len(kinds))
	for _, kind := range Kinds() {
		for _, prefix := range []byte{prefixPending, prefixWinners} {
			start := sessionPrefix(prefix, kind, idx)
			iter, err := l.db.NewIterator(start, db.PrefixEnd(start))
			if err != nil {
				return nil, fmt.Errorf("create iterator: %w", err)
			}
			for iter.Next() {
				if err := batch.Delete(iter.Key()); err != nil {
					iter.Close() //nolint:errcheck
					return nil, fmt.Errorf("delete ledger entry: %w", err)
				}
				if prefix == prefixPending {
					removed[kind]++
				}
			}
			if err := iter.Close(); err != nil {
				return nil, fmt.Errorf("close iterator: %w", err)
			}
		}
	}
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return removed, nil
}

// Unapplied lists every pending entry ordered by kind, session and
// candidate hash.
func (l *Ledger) Unapplied() ([]PendingSlashes, error) {
	start := []byte{prefixPending}
	iter, err := l.db.NewIterator(start, db.PrefixEnd(start))
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	var pending []PendingSlashes
	for iter.Next() {
		kind, timeSlot, err := parseLedgerKey(iter.Key())
		if err != nil {
			return nil, err
		}
		value, err := iter.Value()
		if err != nil {
			return nil, err
		}
		var losers Losers
		if err := l.serializer.Decode(value, &losers); err != nil {
			return nil, err
		}
		winners, err := l.Winners(kind, timeSlot)
		if err != nil {
			return nil, err
		}
		pending = append(pending, PendingSlashes{
			Kind:     kind,
			TimeSlot: timeSlot,
			Losers:   losers,
			Winners:  winners,
		})
	}
	return pending, nil
}

func (l *Ledger) get(key []byte, v interface{}) (bool, error) {
	b, err := l.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get ledger entry: %w", err)
	}
	if err := l.serializer.Decode(b, v); err != nil {
		return false, err
	}
	return true, nil
}

const ledgerKeySize = 1 + 1 + 4 + crypto.HashSize

// ledgerKey is prefix ⌢ kind ⌢ big-endian session ⌢ candidate hash.
func ledgerKey(prefix byte, kind OffenceKind, timeSlot TimeSlot) []byte {
	key := make([]byte, 0, ledgerKeySize)
	key = append(key, sessionPrefix(prefix, kind, timeSlot.SessionIndex)...)
	return append(key, timeSlot.CandidateHash[:]...)
}

func sessionPrefix(prefix byte, kind OffenceKind, idx session.Index) []byte {
	key := []byte{prefix, byte(kind)}
	return binary.BigEndian.AppendUint32(key, uint32(idx))
}

func parseLedgerKey(key []byte) (OffenceKind, TimeSlot, error) {
	if len(key) != ledgerKeySize {
		return 0, TimeSlot{}, fmt.Errorf("malformed ledger key of %d bytes", len(key))
	}
	kind := OffenceKind(key[1])
	if !kind.Valid() {
		return 0, TimeSlot{}, fmt.Errorf("malformed ledger key: %s", kind)
	}
	return kind, TimeSlot{
		SessionIndex:  session.Index(binary.BigEndian.Uint32(key[2:6])),
		CandidateHash: crypto.Hash(key[6:]),
	}, nil
}

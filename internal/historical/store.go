package historical

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/merkle/binary_tree"
	"github.com/eigerco/slashing/internal/session"
	"github.com/eigerco/slashing/pkg/db"
	"github.com/eigerco/slashing/pkg/db/pebble"
	"github.com/eigerco/slashing/pkg/log"
	"github.com/eigerco/slashing/pkg/serialization"
)

const (
	prefixRoot byte = iota + 0x20
	prefixMembers
	prefixLatest
)

// Store commits every session's validator set to a Merkle root and checks
// ownership proofs against those roots.
type Store struct {
	db         db.KVStore
	serializer *serialization.Serializer
	keyType    crypto.KeyTypeID
}

// NewStore creates a historical store whose leaves commit to keys of keyType.
func NewStore(kv db.KVStore, keyType crypto.KeyTypeID) *Store {
	return &Store{
		db:         kv,
		serializer: serialization.NewSCALESerializer(),
		keyType:    keyType,
	}
}

// NoteSession commits the members of a session and makes it the session
// IdentificationOf answers for.
func (s *Store) NoteSession(idx session.Index, members []Member) (crypto.Hash, error) {
	if len(members) == 0 {
		return crypto.Hash{}, ErrEmptyValidators
	}
	leaves, err := s.leaves(members)
	if err != nil {
		return crypto.Hash{}, err
	}
	root := binary_tree.ComputeWellBalancedRoot(leaves, crypto.HashData)

	membersBytes, err := s.serializer.Encode(members)
	if err != nil {
		return crypto.Hash{}, err
	}

	batch := s.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	if err := batch.Put(makeKey(prefixRoot, idx), root[:]); err != nil {
		return crypto.Hash{}, fmt.Errorf("store root: %w", err)
	}
	if err := batch.Put(makeKey(prefixMembers, idx), membersBytes); err != nil {
		return crypto.Hash{}, fmt.Errorf("store members: %w", err)
	}
	if err := batch.Put([]byte{prefixLatest}, binary.BigEndian.AppendUint32(nil, uint32(idx))); err != nil {
		return crypto.Hash{}, fmt.Errorf("store latest session: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return crypto.Hash{}, fmt.Errorf("commit batch: %w", err)
	}
	return root, nil
}

// Root returns the committed root of a session.
func (s *Store) Root(idx session.Index) (crypto.Hash, error) {
	b, err := s.db.Get(makeKey(prefixRoot, idx))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return crypto.Hash{}, ErrSessionNotNoted
		}
		return crypto.Hash{}, fmt.Errorf("get root: %w", err)
	}
	return crypto.Hash(b), nil
}

// Prove builds the ownership proof of validator in session idx.
func (s *Store) Prove(idx session.Index, validator crypto.ValidatorID) (Proof, error) {
	members, err := s.members(idx)
	if err != nil {
		return Proof{}, err
	}
	position := -1
	for i, m := range members {
		if m.Validator == validator {
			position = i
			break
		}
	}
	if position < 0 {
		return Proof{}, ErrNotAMember
	}

	leaves, err := s.leaves(members)
	if err != nil {
		return Proof{}, err
	}
	m := members[position]
	return Proof{
		SessionIndex:      idx,
		ValidatorSetCount: uint32(len(members)),
		LeafIndex:         uint32(position),
		Trace:             binary_tree.ComputeTrace(leaves, position, crypto.HashData),
		Identification:    IdentificationTuple{Account: m.Account, Exposure: m.Exposure},
	}, nil
}

// CheckProof verifies that (keyType, validator) belonged to the proof's
// identification in the proof's session and returns that identification.
func (s *Store) CheckProof(keyType crypto.KeyTypeID, validator crypto.ValidatorID, proof Proof) (IdentificationTuple, bool) {
	if keyType != s.keyType {
		return IdentificationTuple{}, false
	}
	root, err := s.Root(proof.SessionIndex)
	if err != nil {
		if !errors.Is(err, ErrSessionNotNoted) {
			log.Internal.Error().Err(err).Uint32("session", uint32(proof.SessionIndex)).Msg("read session root")
		}
		return IdentificationTuple{}, false
	}
	leafBytes, err := s.serializer.Encode(leaf{
		KeyType:   keyType,
		Validator: validator,
		Account:   proof.Identification.Account,
		Exposure:  proof.Identification.Exposure,
	})
	if err != nil {
		return IdentificationTuple{}, false
	}
	if !binary_tree.VerifyTrace(root, leafBytes, int(proof.LeafIndex), int(proof.ValidatorSetCount), proof.Trace, crypto.HashData) {
		return IdentificationTuple{}, false
	}
	return proof.Identification, true
}

// IdentificationOf returns the full identification of account in the most
// recently noted session.
func (s *Store) IdentificationOf(account crypto.AccountID) (IdentificationTuple, bool) {
	b, err := s.db.Get([]byte{prefixLatest})
	if err != nil {
		return IdentificationTuple{}, false
	}
	members, err := s.members(session.Index(binary.BigEndian.Uint32(b)))
	if err != nil {
		log.Internal.Error().Err(err).Msg("read latest session members")
		return IdentificationTuple{}, false
	}
	for _, m := range members {
		if m.Account == account {
			return IdentificationTuple{Account: m.Account, Exposure: m.Exposure}, true
		}
	}
	return IdentificationTuple{}, false
}

// Prune drops roots and members of every session before oldest.
func (s *Store) Prune(oldest session.Index) error {
	batch := s.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	for _, prefix := range []byte{prefixRoot, prefixMembers} {
		iter, err := s.db.NewIterator([]byte{prefix}, makeKey(prefix, oldest))
		if err != nil {
			return fmt.Errorf("create iterator: %w", err)
		}
		for iter.Next() {
			if err := batch.Delete(iter.Key()); err != nil {
				iter.Close() //nolint:errcheck
				return fmt.Errorf("delete historical record: %w", err)
			}
		}
		if err := iter.Close(); err != nil {
			return fmt.Errorf("close iterator: %w", err)
		}
	}
	return batch.Commit()
}

func (s *Store) members(idx session.Index) ([]Member, error) {
	b, err := s.db.Get(makeKey(prefixMembers, idx))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrSessionNotNoted
		}
		return nil, fmt.Errorf("get members: %w", err)
	}
	var members []Member
	if err := s.serializer.Decode(b, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) leaves(members []Member) ([][]byte, error) {
	leaves := make([][]byte, len(members))
	for i, m := range members {
		b, err := s.serializer.Encode(leaf{
			KeyType:   s.keyType,
			Validator: m.Validator,
			Account:   m.Account,
			Exposure:  m.Exposure,
		})
		if err != nil {
			return nil, err
		}
		leaves[i] = b
	}
	return leaves, nil
}

func makeKey(prefix byte, idx session.Index) []byte {
	key := make([]byte, 5)
	key[0] = prefix
	binary.BigEndian.PutUint32(key[1:], uint32(idx))
	return key
}

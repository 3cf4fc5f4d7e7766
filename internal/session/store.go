package session

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/pkg/db"
	"github.com/eigerco/slashing/pkg/db/pebble"
	"github.com/eigerco/slashing/pkg/serialization"
)

const (
	prefixCurrent byte = iota + 0x10
	prefixAccounts
	prefixInfo
)

var _ Directory = (*Store)(nil)

// Store keeps session records in a key-value store.
type Store struct {
	db         db.KVStore
	serializer *serialization.Serializer
}

// NewStore creates a session store on top of kv.
func NewStore(kv db.KVStore) *Store {
	return &Store{db: kv, serializer: serialization.NewSCALESerializer()}
}

// Start records a new session and makes it the current one. The first
// session may have any index; later ones must follow the current index.
func (s *Store) Start(idx Index, accounts []crypto.AccountID, info Info) (ChangeNotification, error) {
	if len(accounts) != len(info.Validators) {
		return ChangeNotification{}, ErrMismatchedMembers
	}
	current, err := s.CurrentIndex()
	switch {
	case errors.Is(err, ErrNoCurrentSession):
	case err != nil:
		return ChangeNotification{}, err
	case idx != current+1:
		return ChangeNotification{}, fmt.Errorf("%w: current %d, got %d", ErrSessionNotNext, current, idx)
	}

	accountsBytes, err := s.serializer.Encode(accounts)
	if err != nil {
		return ChangeNotification{}, err
	}
	infoBytes, err := s.serializer.Encode(info)
	if err != nil {
		return ChangeNotification{}, err
	}

	batch := s.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	if err := batch.Put(sessionKey(prefixAccounts, idx), accountsBytes); err != nil {
		return ChangeNotification{}, fmt.Errorf("store accounts: %w", err)
	}
	if err := batch.Put(sessionKey(prefixInfo, idx), infoBytes); err != nil {
		return ChangeNotification{}, fmt.Errorf("store session info: %w", err)
	}
	if err := batch.Put([]byte{prefixCurrent}, encodeIndex(idx)); err != nil {
		return ChangeNotification{}, fmt.Errorf("store current session: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return ChangeNotification{}, fmt.Errorf("commit batch: %w", err)
	}

	return ChangeNotification{SessionIndex: idx, Validators: info.Validators}, nil
}

func (s *Store) CurrentIndex() (Index, error) {
	b, err := s.db.Get([]byte{prefixCurrent})
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, ErrNoCurrentSession
		}
		return 0, fmt.Errorf("get current session: %w", err)
	}
	return decodeIndex(b), nil
}

func (s *Store) AccountKeys(idx Index) ([]crypto.AccountID, error) {
	var accounts []crypto.AccountID
	if err := s.get(sessionKey(prefixAccounts, idx), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) SessionInfo(idx Index) (Info, error) {
	var info Info
	if err := s.get(sessionKey(prefixInfo, idx), &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Prune drops the records of every session before oldest.
func (s *Store) Prune(oldest Index) (int, error) {
	batch := s.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	removed := 0
	for _, prefix := range []byte{prefixAccounts, prefixInfo} {
		iter, err := s.db.NewIterator([]byte{prefix}, sessionKey(prefix, oldest))
		if err != nil {
			return 0, fmt.Errorf("create iterator: %w", err)
		}
		for iter.Next() {
			if err := batch.Delete(iter.Key()); err != nil {
				iter.Close() //nolint:errcheck
				return 0, fmt.Errorf("delete session record: %w", err)
			}
			if prefix == prefixInfo {
				removed++
			}
		}
		if err := iter.Close(); err != nil {
			return 0, fmt.Errorf("close iterator: %w", err)
		}
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return removed, nil
}

func (s *Store) get(key []byte, v interface{}) error {
	b, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrUnknownSession
		}
		return fmt.Errorf("get session record: %w", err)
	}
	return s.serializer.Decode(b, v)
}

// sessionKey is prefix ⌢ big-endian index, so keys sort by session.
func sessionKey(prefix byte, idx Index) []byte {
	key := make([]byte, 5)
	key[0] = prefix
	binary.BigEndian.PutUint32(key[1:], uint32(idx))
	return key
}

func encodeIndex(idx Index) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(idx))
	return b
}

func decodeIndex(b []byte) Index {
	return Index(binary.BigEndian.Uint32(b))
}

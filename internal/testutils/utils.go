package testutils

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/slashing/internal/crypto"
)

func RandomHash(t *testing.T) crypto.Hash {
	var hash crypto.Hash
	_, err := rand.Read(hash[:])
	require.NoError(t, err)
	return hash
}

func RandomValidatorID(t *testing.T) crypto.ValidatorID {
	var id crypto.ValidatorID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

func RandomAccountID(t *testing.T) crypto.AccountID {
	var id crypto.AccountID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

// Account returns a deterministic account id for the n-th validator, which
// keeps expectations in tests readable.
func Account(n uint32) crypto.AccountID {
	var id crypto.AccountID
	id[0] = 0xac
	binary.BigEndian.PutUint32(id[1:], n)
	return id
}

// ValidatorKey returns a deterministic session key for the n-th validator.
func ValidatorKey(n uint32) crypto.ValidatorID {
	var id crypto.ValidatorID
	id[0] = 0x5e
	binary.BigEndian.PutUint32(id[1:], n)
	return id
}

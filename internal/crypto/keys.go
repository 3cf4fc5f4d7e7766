package crypto

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// ValidatorID is the session key a validator uses for parachain work.
type ValidatorID [Ed25519PublicSize]byte

// AccountID is the stash account standing behind a session key.
type AccountID [AccountIDSize]byte

// KeyTypeID namespaces session keys of different purposes.
type KeyTypeID [KeyTypeIDSize]byte

// ParachainKeyTypeID is the key type of validator parachain keys.
var ParachainKeyTypeID = KeyTypeID{'p', 'a', 'r', 'a'}

// ValidatorIDFromPublicKey copies an ed25519 public key into a ValidatorID.
func ValidatorIDFromPublicKey(pub ed25519.PublicKey) (ValidatorID, error) {
	if len(pub) != Ed25519PublicSize {
		return ValidatorID{}, fmt.Errorf("invalid public key length %d", len(pub))
	}
	return ValidatorID(pub), nil
}

func (v ValidatorID) String() string {
	return "0x" + hex.EncodeToString(v[:])
}

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (k KeyTypeID) String() string {
	return string(k[:])
}

// Compare orders account ids bytewise.
func (a AccountID) Compare(b AccountID) int {
	return bytes.Compare(a[:], b[:])
}

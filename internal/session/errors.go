package session

import "errors"

var (
	ErrUnknownSession    = errors.New("unknown session")
	ErrNoCurrentSession  = errors.New("no session has started")
	ErrSessionNotNext    = errors.New("session index does not follow the current one")
	ErrMismatchedMembers = errors.New("accounts and validators differ in length")
)

package historical

import "errors"

var (
	ErrSessionNotNoted = errors.New("session root not noted")
	ErrNotAMember      = errors.New("key is not a member of the session")
	ErrEmptyValidators = errors.New("session has no validators")
)

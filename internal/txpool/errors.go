package txpool

import "errors"

var (
	ErrAlreadyImported  = errors.New("transaction already imported")
	ErrTagAlreadyInPool = errors.New("a transaction providing the same tag is already in the pool")
)

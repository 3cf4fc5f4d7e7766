package crypto

const (
	HashSize          = 32
	Ed25519PublicSize = 32
	AccountIDSize     = 32
	KeyTypeIDSize     = 4
)

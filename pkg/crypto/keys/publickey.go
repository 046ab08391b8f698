package keys

import (
	"crypto/ecdsa"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// PublicKey represents a public key and provides a high level
// API around the X/Y point.
type PublicKey ecdsa.PublicKey

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	return p.X.Cmp(key.X) == 0 && p.Y.Cmp(key.Y) == 0
}

// UncompressedBytes returns 65-byte SEC1 uncompressed representation of the
// key (0x04 prefix followed by X and Y).
func (p *PublicKey) UncompressedBytes() []byte {
	return crypto.FromECDSAPub((*ecdsa.PublicKey)(p))
}

// String returns hex-encoded uncompressed key.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.UncompressedBytes())
}

// Address returns the account address for the key: the last 20 bytes of the
// Keccak-256 hash of X‖Y (uncompressed encoding without the prefix byte).
func (p *PublicKey) Address() common.Address {
	var (
		raw  = p.UncompressedBytes()
		hash [32]byte
		d    = sha3.NewLegacyKeccak256()
	)
	_, _ = d.Write(raw[1:])
	d.Sum(hash[:0])
	return common.BytesToAddress(hash[12:])
}

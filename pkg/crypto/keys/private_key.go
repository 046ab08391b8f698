package keys

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyLength is the size of a secp256k1 private key scalar in bytes.
const PrivateKeyLength = 32

// PrivateKey represents a secp256k1 private key and provides a high level
// API around ecdsa.PrivateKey.
type PrivateKey struct {
	ecdsa.PrivateKey
}

// NewPrivateKey creates a new random secp256k1 private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{*k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string, an optional 0x prefix is allowed.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return nil, failure.NewInvalidKey(fmt.Errorf("not a hex string: %w", err))
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given byte slice. The
// slice must contain exactly 32 bytes of a valid (non-zero, less than curve
// order) scalar.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLength {
		return nil, failure.NewInvalidKey(fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", PrivateKeyLength, len(b),
		))
	}
	k, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, failure.NewInvalidKey(err)
	}
	return &PrivateKey{*k}, nil
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	result := PublicKey(p.PrivateKey.PublicKey)
	return &result
}

// Address derives the account address coupled with the private key.
func (p *PrivateKey) Address() common.Address {
	return p.PublicKey().Address()
}

// ECDSA returns the underlying ecdsa.PrivateKey for signing.
func (p *PrivateKey) ECDSA() *ecdsa.PrivateKey {
	return &p.PrivateKey
}

// Destroy wipes the private scalar, the key can't be used after this call.
func (p *PrivateKey) Destroy() {
	if p.D == nil {
		return
	}
	words := p.D.Bits()
	for i := range words {
		words[i] = 0
	}
	p.D.SetInt64(0)
}

// Bytes returns the underlying private key scalar as a 32-byte slice.
func (p *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(&p.PrivateKey)
}

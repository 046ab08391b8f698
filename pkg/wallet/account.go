/*
Package wallet provides Account, the signing identity used by actor.

An Account is derived from a single secp256k1 private key. The key is kept
unexported and is only used by SignTx, it's never serialized or printed.
Account also owns a nonce Sequencer, so every Actor created for the same
Account issues nonces from the same source.
*/
package wallet

import (
	"fmt"

	"github.com/easycontract/easycontract/pkg/core/transaction"
	"github.com/easycontract/easycontract/pkg/crypto/keys"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Account represents an externally owned account able to sign transactions.
type Account struct {
	// privateKey is never exposed outside of the package.
	privateKey *keys.PrivateKey

	// address is derived from the public key once, it's immutable.
	address common.Address

	sequencer Sequencer
}

// NewAccount creates a new Account with a random generated PrivateKey.
func NewAccount() (*Account, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return newAccountFromPrivateKey(priv), nil
}

// NewAccountFromSecretKey creates an Account from the given hex-encoded
// 32-byte secret, failure.ErrInvalidKey is returned for anything that is
// not a valid secp256k1 scalar.
func NewAccountFromSecretKey(secret string) (*Account, error) {
	priv, err := keys.NewPrivateKeyFromHex(secret)
	if err != nil {
		return nil, err
	}
	return newAccountFromPrivateKey(priv), nil
}

// newAccountFromPrivateKey creates a wallet from the given PrivateKey.
func newAccountFromPrivateKey(p *keys.PrivateKey) *Account {
	return &Account{
		privateKey: p,
		address:    p.Address(),
	}
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.address
}

// PublicKey returns the public key of the account.
func (a *Account) PublicKey() *keys.PublicKey {
	return a.privateKey.PublicKey()
}

// String implements the fmt.Stringer interface, only the address is printed.
func (a *Account) String() string {
	return a.address.Hex()
}

// GoString implements the fmt.GoStringer interface to keep %#v from dumping
// the key.
func (a *Account) GoString() string {
	return fmt.Sprintf("wallet.Account{%s}", a.address.Hex())
}

// Sequencer returns nonce sequencer of the account.
func (a *Account) Sequencer() *Sequencer {
	return &a.sequencer
}

// CanSign returns true when the account has a usable private key.
func (a *Account) CanSign() bool {
	return a.privateKey != nil && a.privateKey.D != nil && a.privateKey.D.Sign() > 0
}

// Close wipes the private key, the account can't sign after this call.
func (a *Account) Close() {
	if a.privateKey != nil {
		a.privateKey.Destroy()
	}
}

// SignTx signs the given transaction with the account key using EIP-155
// replay protection for the transaction's chain ID. It returns canonical
// encoding of the signed transaction and its hash.
func (a *Account) SignTx(t *transaction.Transaction) ([]byte, common.Hash, error) {
	if !a.CanSign() {
		return nil, common.Hash{}, fmt.Errorf("account %s can't sign", a.address.Hex())
	}
	tx, err := t.ToGeth()
	if err != nil {
		return nil, common.Hash{}, err
	}
	signed, err := types.SignTx(tx, types.NewEIP155Signer(t.ChainID.ToBig()), a.privateKey.ECDSA())
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("signing: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("encoding signed transaction: %w", err)
	}
	return raw, signed.Hash(), nil
}

/*
Package transaction contains the signable transaction structure assembled by
the actor before signing.
*/
package transaction

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Transaction is a fully resolved (legacy, EIP-155 protected) transaction
// that is ready to be signed. All numeric fields are unsigned 256-bit values,
// To is nil for contract creation.
type Transaction struct {
	// Nonce must match the sender's next expected transaction count at
	// submission time.
	Nonce    *uint256.Int
	To       *common.Address
	Value    *uint256.Int
	GasPrice *uint256.Int
	// Gas is the gas limit.
	Gas  *uint256.Int
	Data []byte
	// ChainID is mixed into the signature for replay protection.
	ChainID *uint256.Int
}

// ErrUnresolved is returned from Validate for transactions that have some
// field not set.
var ErrUnresolved = errors.New("unresolved transaction field")

// IsCreation returns true for contract creation transactions.
func (t *Transaction) IsCreation() bool {
	return t.To == nil
}

// Validate checks that every field is resolved and that nonce and gas fit
// into the range supported by the network.
func (t *Transaction) Validate() error {
	for name, v := range map[string]*uint256.Int{
		"nonce":     t.Nonce,
		"value":     t.Value,
		"gas price": t.GasPrice,
		"gas":       t.Gas,
		"chain id":  t.ChainID,
	} {
		if v == nil {
			return fmt.Errorf("%w: %s", ErrUnresolved, name)
		}
	}
	if !t.Nonce.IsUint64() {
		return errors.New("nonce overflows uint64")
	}
	if !t.Gas.IsUint64() {
		return errors.New("gas overflows uint64")
	}
	if t.ChainID.IsZero() {
		return errors.New("zero chain id")
	}
	return nil
}

// ToGeth converts the transaction into an unsigned go-ethereum transaction.
func (t *Transaction) ToGeth() (*types.Transaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var to *common.Address
	if t.To != nil {
		addr := *t.To
		to = &addr
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    t.Nonce.Uint64(),
		GasPrice: t.GasPrice.ToBig(),
		Gas:      t.Gas.Uint64(),
		To:       to,
		Value:    t.Value.ToBig(),
		Data:     common.CopyBytes(t.Data),
	}), nil
}

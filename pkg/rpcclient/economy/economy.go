/*
Package economy provides a convenience wrapper for the demo token contract.

The token mints its whole supply to the deployer and provides a minimal
set of methods: balance lookup and transfers. The Reader is safe for
concurrent use, all of its methods are read-only.
*/
package economy

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/rpcclient/contract"
	"github.com/easycontract/easycontract/pkg/rpcclient/unwrap"
	"github.com/easycontract/easycontract/pkg/smartcontract/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MaxValidDecimals is the maximum value 'decimals' method can return to be
// considered as valid. It's log10(2^256).
const MaxValidDecimals = 77

//go:embed economy.abi.json
var abiJSON []byte

var tokenABI = abi.MustLoad(abiJSON)

// Invoker is used by Reader to call various methods.
type Invoker interface {
	contract.Invoker
}

// Actor is used by Token to create and send transactions.
type Actor interface {
	Invoker
	contract.Actor
}

// Reader represents safe (read-only) methods of the token.
type Reader struct {
	invoker  Invoker
	contract *contract.Contract
}

// Token provides full token interface, both safe and state-changing
// methods.
type Token struct {
	Reader

	actor Actor
}

// ABI returns the token interface description.
func ABI() *abi.ABI {
	return tokenABI
}

// NewReader creates an instance of Reader for the token with the given
// address using the given Invoker.
func NewReader(invoker Invoker, address common.Address) *Reader {
	return &Reader{
		invoker:  invoker,
		contract: contract.NewWithInvoker(invoker, address, tokenABI),
	}
}

// New creates an instance of Token for the token with the given address
// using the given Actor.
func New(actor Actor, address common.Address) *Token {
	return &Token{*NewReader(actor, address), actor}
}

// Deploy deploys the token code minting supply to the Actor's account and
// returns Token for it.
func Deploy(ctx context.Context, actor Actor, bytecode []byte, supply *big.Int) (*Token, *types.Receipt, error) {
	addr, r, err := contract.DeployWithArgs(ctx, actor, bytecode, tokenABI, nil, supply)
	if err != nil {
		return nil, r, err
	}
	return New(actor, addr), r, nil
}

// Address returns the token contract address.
func (r *Reader) Address() common.Address {
	return r.contract.Address()
}

// Name returns the name of the token.
func (r *Reader) Name(ctx context.Context) (string, error) {
	return unwrap.String(r.contract.QueryWith(ctx, r.invoker, "name"))
}

// Symbol returns a short token identifier.
func (r *Reader) Symbol(ctx context.Context) (string, error) {
	return unwrap.String(r.contract.QueryWith(ctx, r.invoker, "symbol"))
}

// Decimals returns the number of decimals used by the token. Values more
// than MaxValidDecimals are considered to be invalid.
func (r *Reader) Decimals(ctx context.Context) (int, error) {
	dec, err := unwrap.Int64(r.contract.QueryWith(ctx, r.invoker, "decimals"))
	if err != nil {
		return 0, err
	}
	if dec < 0 || dec > MaxValidDecimals {
		return 0, failure.NewDecoding(fmt.Errorf("decimals %d is out of range", dec))
	}
	return int(dec), nil
}

// TotalSupply returns the amount of minted tokens.
func (r *Reader) TotalSupply(ctx context.Context) (*big.Int, error) {
	return unwrap.BigInt(r.contract.QueryWith(ctx, r.invoker, "totalSupply"))
}

// Balance returns the token balance of the given account.
func (r *Reader) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return unwrap.BigInt(r.contract.QueryWith(ctx, r.invoker, "balance", account))
}

// Transfer sends a transaction transferring amount of tokens from the
// Actor's account to the given one and waits for it to be mined.
func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.contract.Invoke(ctx, t.actor, nil, "transfer", to, amount)
}

// SendTransfer is similar to Transfer, but doesn't wait for the
// transaction to be mined, its hash is returned.
func (t *Token) SendTransfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	return t.contract.SendInvoke(ctx, t.actor, nil, "transfer", to, amount)
}

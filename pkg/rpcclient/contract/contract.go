/*
Package contract provides a handle for deployed contracts that can be
called via the contract interface description (ABI).

Contract binds a contract address and its ABI to the node client. Method
arguments are always encoded before any node request is made, so interface
mismatches (unknown method, wrong number or types of arguments) never cause
network activity. Read-only calls are performed via invoker, state-changing
ones are sent via actor and awaited.
*/
package contract

import (
	"context"
	"errors"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/rpcclient/invoker"
	"github.com/easycontract/easycontract/pkg/smartcontract/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// Invoker is used by Contract to perform read-only calls.
type Invoker interface {
	Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error)
}

// Actor is used by Contract to create and send transactions, it's
// implemented by actor.Actor.
type Actor interface {
	SendTx(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (common.Hash, error)
	SendAndWait(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (*types.Receipt, error)
}

// Contract is a handle of a deployed contract, it's immutable and safe for
// concurrent use.
type Contract struct {
	client  invoker.RPCInvoke
	address common.Address
	abi     *abi.ABI
}

// New creates a Contract for the given address and ABI using the given
// node client for read-only calls.
func New(client invoker.RPCInvoke, address common.Address, a *abi.ABI) *Contract {
	return &Contract{
		client:  client,
		address: address,
		abi:     a,
	}
}

// NewWithInvoker is similar to New, but performs read-only calls via the
// given Invoker. Its sender is used for all calls, Query ignores from in
// this case.
func NewWithInvoker(inv Invoker, address common.Address, a *abi.ABI) *Contract {
	return New(invokerClient{inv}, address, a)
}

// invokerClient adapts Invoker to the node client interface.
type invokerClient struct {
	inv Invoker
}

func (c invokerClient) Call(ctx context.Context, req *ethrpc.CallRequest) ([]byte, error) {
	if req.To == nil {
		return nil, errors.New("no contract address in call")
	}
	var data []byte
	if req.Data != nil {
		data = *req.Data
	}
	return c.inv.Call(ctx, *req.To, data)
}

// NewFromJSON is similar to New, but parses JSON ABI description,
// failure.ErrMalformedInterface is returned if it can't be parsed.
func NewFromJSON(client invoker.RPCInvoke, address common.Address, abiJSON []byte) (*Contract, error) {
	a, err := abi.Load(abiJSON)
	if err != nil {
		return nil, err
	}
	return New(client, address, a), nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI returns the contract interface description.
func (c *Contract) ABI() *abi.ABI {
	return c.abi
}

// Query performs a read-only call of the method with the given parameters
// at the latest state and returns decoded results. Optional from is used as
// the sender of the call. See abi.ABI.Pack for parameter conversion rules.
func (c *Contract) Query(ctx context.Context, method string, from *common.Address, params ...any) ([]any, error) {
	return c.QueryWith(ctx, invoker.New(c.client, from), method, params...)
}

// QueryWith is similar to Query, but uses the given Invoker, it allows to
// perform historic calls (see invoker.NewHistoricAtHeight).
func (c *Contract) QueryWith(ctx context.Context, inv Invoker, method string, params ...any) ([]any, error) {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	res, err := inv.Call(ctx, c.address, data)
	if err != nil {
		return nil, err
	}
	return c.abi.Unpack(method, res)
}

// Invoke creates a transaction calling the method with the given parameters
// and value (nil means zero) from the Actor's account, sends it and waits
// for it to be mined. The receipt is returned only for successfully
// executed transactions, see actor.Actor.SendAndWait.
func (c *Contract) Invoke(ctx context.Context, act Actor, value *uint256.Int, method string, params ...any) (*types.Receipt, error) {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, err
	}
	return act.SendAndWait(ctx, &c.address, value, data)
}

// SendInvoke is similar to Invoke, but doesn't wait for the transaction to
// be mined, its hash is returned.
func (c *Contract) SendInvoke(ctx context.Context, act Actor, value *uint256.Int, method string, params ...any) (common.Hash, error) {
	data, err := c.abi.Pack(method, params...)
	if err != nil {
		return common.Hash{}, err
	}
	return act.SendTx(ctx, &c.address, value, data)
}

// String implements the fmt.Stringer interface.
func (c *Contract) String() string {
	return c.address.Hex()
}

// Deploy creates a contract from the given creation bytecode sending value
// (nil means zero) to it and waits for the deployment to be mined. It
// returns the address of the new contract and the receipt,
// failure.ErrDeploymentFailed is returned for successful receipts that
// don't have it.
func Deploy(ctx context.Context, act Actor, bytecode []byte, value *uint256.Int) (common.Address, *types.Receipt, error) {
	if len(bytecode) == 0 {
		return common.Address{}, nil, failure.NewEncoding(errors.New("empty contract bytecode"))
	}
	r, err := act.SendAndWait(ctx, nil, value, bytecode)
	if err != nil {
		return common.Address{}, nil, err
	}
	if r.ContractAddress == (common.Address{}) {
		return common.Address{}, r, failure.NewDeploymentFailed(r.TxHash)
	}
	return r.ContractAddress, r, nil
}

// DeployWithArgs is similar to Deploy, but appends constructor parameters
// packed according to the ABI to the bytecode.
func DeployWithArgs(ctx context.Context, act Actor, bytecode []byte, a *abi.ABI, value *uint256.Int, params ...any) (common.Address, *types.Receipt, error) {
	args, err := a.PackConstructor(params...)
	if err != nil {
		return common.Address{}, nil, err
	}
	code := make([]byte, 0, len(bytecode)+len(args))
	code = append(code, bytecode...)
	code = append(code, args...)
	return Deploy(ctx, act, code, value)
}

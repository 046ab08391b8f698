/*
Package invoker provides a convenient wrapper to perform read-only calls.

Invoker executes eth_call requests on behalf of some (optional) sender,
nothing is signed or sent and no state is changed. Calls are performed at
the latest block by default, historic invokers use some fixed block.
*/
package invoker

import (
	"context"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RPCInvoke is a set of RPC methods needed to execute things at the latest
// block.
type RPCInvoke interface {
	Call(ctx context.Context, req *ethrpc.CallRequest) ([]byte, error)
}

// RPCInvokeHistoric is a set of RPC methods needed to execute things at some
// fixed point in blockchain's life.
type RPCInvokeHistoric interface {
	CallAtHeight(ctx context.Context, req *ethrpc.CallRequest, height uint64) ([]byte, error)
}

// Invoker allows to test-execute things using RPC client. Its API simplifies
// reusing the same sender for a series of calls. It doesn't do anything with
// the result of invocation, that's left for upper (contract) layer to deal
// with. Invoker does not produce any transactions and does not change the
// state of the chain.
type Invoker struct {
	client RPCInvoke
	from   *common.Address
}

type historicConverter struct {
	client RPCInvokeHistoric
	height uint64
}

// New creates an Invoker to test-execute things at the latest block. from
// is the optional sender of calls (nil means no sender).
func New(client RPCInvoke, from *common.Address) *Invoker {
	var sender *common.Address
	if from != nil {
		f := *from
		sender = &f
	}
	return &Invoker{client, sender}
}

// NewHistoricAtHeight creates an Invoker to test-execute things at some
// given height.
func NewHistoricAtHeight(height uint64, client RPCInvokeHistoric, from *common.Address) *Invoker {
	return New(&historicConverter{
		client: client,
		height: height,
	}, from)
}

func (h *historicConverter) Call(ctx context.Context, req *ethrpc.CallRequest) ([]byte, error) {
	return h.client.CallAtHeight(ctx, req, h.height)
}

// Sender returns the sender used for calls (nil if none).
func (v *Invoker) Sender() *common.Address {
	return v.from
}

// Call invokes a contract with the given call-data and returns the output
// data as is.
func (v *Invoker) Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	return v.CallWithValue(ctx, contract, nil, data)
}

// CallWithValue is similar to Call, but also simulates transfer of the
// given value to the contract.
func (v *Invoker) CallWithValue(ctx context.Context, contract common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	return v.client.Call(ctx, ethrpc.NewCallRequest(v.from, &contract, value, data))
}

// Run executes the given contract creation code without deploying it and
// returns the resulting runtime code.
func (v *Invoker) Run(ctx context.Context, code []byte) ([]byte, error) {
	return v.client.Call(ctx, ethrpc.NewCallRequest(v.from, nil, nil, code))
}

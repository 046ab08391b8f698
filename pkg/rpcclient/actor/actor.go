/*
Package actor provides a way to change chain state via RPC client.

This layer builds on top of the basic RPC client, [invoker] and [waiter]
packages, it simplifies creating, signing and sending transactions to the
network (since that's the only way chain state is changed). It's generic
enough to be used for any contract that you may want to invoke and
contract-specific functions can build on top of it.

Every transaction goes through the same stages: resolve (nonce, gas price,
chain ID and gas estimation are requested from the node concurrently),
assemble, sign, submit and (optionally) confirm. A failure at any stage
aborts the process, nothing is signed or sent after a failed resolution
and nothing is retried after a failed submission.
*/
package actor

import (
	"context"
	"errors"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/easycontract/easycontract/pkg/rpcclient/invoker"
	"github.com/easycontract/easycontract/pkg/rpcclient/waiter"
	"github.com/easycontract/easycontract/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

//go:generate mockgen -source actor.go -destination actor_mock_test.go -package actor

// RPCActor is an interface required from the RPC client to successfully
// create and send transactions.
type RPCActor interface {
	invoker.RPCInvoke
	waiter.RPCPollingBased

	// GetTransactionCount returns the next nonce for the address (pending
	// transactions included).
	GetTransactionCount(ctx context.Context, addr common.Address) (uint64, error)
	GetGasPrice(ctx context.Context) (*uint256.Int, error)
	GetChainID(ctx context.Context) (*uint256.Int, error)
	// EstimateGas MUST return failure.ErrEstimationFailed if the node
	// rejects the request itself (as opposed to transport errors).
	EstimateGas(ctx context.Context, req *ethrpc.CallRequest) (uint64, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
}

// Actor keeps a connection to the RPC endpoint and allows to perform
// state-changing actions (via transactions that can also be created without
// sending them to the network) on behalf of a single account. It also
// provides an Invoker interface to perform test calls with the same sender.
//
// Actor-specific APIs use "Make" prefix for methods that create
// transactions, while "Send" prefix is used by methods that directly
// transmit created transactions to the RPC server. "AndWait" suffix means
// that the method also waits for the transaction to be mined and checks
// its execution status.
//
// Actor also provides a Waiter interface to wait until transaction will be
// mined, it polls the node for receipts using Options.Waiter configuration.
// Waiter uses context of the underlying RPCActor and interrupts transaction
// awaiting process if the context is done (as well as the one passed to
// Wait). waiter.ErrContextDone wrapped with the context's error (as
// failure.ErrCanceled or failure.ErrTimeout) will be returned in this case,
// the transaction itself may still be mined later.
//
// Multiple Actors can be created for the same account, they all share the
// account's nonce sequencer, so concurrent Send* calls never reuse nonces.
type Actor struct {
	invoker.Invoker
	waiter.Waiter

	client  RPCActor
	account *wallet.Account
	opts    Options
	log     *zap.Logger
}

// Options are used to create Actor with non-standard transaction modifier,
// waiter configuration or logger.
type Options struct {
	// Waiter configures receipt polling.
	Waiter waiter.PollConfig
	// Logger is used for debug output, no logging by default.
	Logger *zap.Logger
	// Modifier is used by any method that creates a transaction to
	// modify it before it's signed.
	Modifier TransactionModifier
}

// NewDefaultOptions returns Options that use default waiter configuration,
// no logging and the default TransactionModifier (that does nothing).
func NewDefaultOptions() Options {
	return Options{
		Logger:   zap.NewNop(),
		Modifier: DefaultModifier,
	}
}

// New creates an Actor instance using the specified RPC interface and the
// account. Every transaction created by this Actor will be sent from this
// account. The actor will use default Options (which can be overridden
// using NewTuned).
func New(ra RPCActor, acc *wallet.Account) (*Actor, error) {
	return NewTuned(ra, acc, NewDefaultOptions())
}

// NewTuned creates an Actor that will use the specified Options as defaults
// when creating new transactions. If modifier callback or logger are not
// provided (nil), then default ones (from NewDefaultOptions) are used.
func NewTuned(ra RPCActor, acc *wallet.Account, opts Options) (*Actor, error) {
	if ra == nil {
		return nil, errors.New("nil RPC client")
	}
	if acc == nil || !acc.CanSign() {
		return nil, errors.New("an account able to sign is required")
	}
	def := NewDefaultOptions()
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.Modifier == nil {
		opts.Modifier = def.Modifier
	}
	var sender = acc.Address()
	return &Actor{
		Invoker: *invoker.New(ra, &sender),
		Waiter:  waiter.NewCustomPollingBased(ra, opts.Waiter, opts.Logger),
		client:  ra,
		account: acc,
		opts:    opts,
		log:     opts.Logger,
	}, nil
}

// Sender returns the sender address that will be used in transactions
// created by Actor.
func (a *Actor) Sender() common.Address {
	return a.account.Address()
}

// GetChainID wraps RPCActor's GetChainID, making it available to Actor
// users directly.
func (a *Actor) GetChainID(ctx context.Context) (*uint256.Int, error) {
	return a.client.GetChainID(ctx)
}

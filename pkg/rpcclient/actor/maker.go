package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/easycontract/easycontract/pkg/core/transaction"
	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TransactionModifier is a callback that receives the transaction before
// it's signed from a method that creates signed transactions. It can check
// gas and other fields of the transaction and return an error if there is
// anything wrong there which will abort the creation process. It also can
// modify GasPrice and Gas values taking full responsibility on the effects
// of these modifications (too low values can render transaction invalid).
// Modifying Nonce and ChainID is not supported. Mostly it's useful for
// adding some margin to gas limit since by default it's just the node's
// estimation.
type TransactionModifier func(t *transaction.Transaction) error

// DefaultModifier is the default modifier, it does nothing.
func DefaultModifier(t *transaction.Transaction) error {
	return nil
}

// resolved holds the values requested from the node for a transaction.
type resolved struct {
	nonce    uint64
	gasPrice *uint256.Int
	chainID  *uint256.Int
	gas      uint64
}

// MakeUnsigned creates an unsigned transaction from the account to the
// given recipient (nil for contract creation) with the given value (nil
// means zero) and data. Nonce, gas price, chain ID and gas limit are
// requested from the node concurrently, failure.ErrEstimationFailed is
// returned if the node can't estimate gas for this call (it's known to
// fail).
//
// The nonce is taken from the account's sequencer which is not updated
// here, so unless the transaction is sent via Send before the next Make*
// call for the same account the same nonce may be used again. SendTx does
// it all atomically.
func (a *Actor) MakeUnsigned(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (*transaction.Transaction, error) {
	seq := a.account.Sequencer()
	seq.Lock()
	defer seq.Unlock()
	return a.makeUnsigned(ctx, to, value, data)
}

// makeUnsigned must be called with the sequencer locked.
func (a *Actor) makeUnsigned(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (*transaction.Transaction, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	start := time.Now()
	res, err := a.resolve(ctx, to, value, data)
	observeStage(stageResolve, start, err)
	if err != nil {
		return nil, err
	}

	nonce := a.account.Sequencer().Next(res.nonce)
	tx := &transaction.Transaction{
		Nonce:    uint256.NewInt(nonce),
		Value:    value.Clone(),
		GasPrice: res.gasPrice,
		Gas:      uint256.NewInt(res.gas),
		Data:     common.CopyBytes(data),
		ChainID:  res.chainID,
	}
	if to != nil {
		recipient := *to
		tx.To = &recipient
	}
	if err = a.opts.Modifier(tx); err != nil {
		observeFailure(stageAssemble)
		return nil, fmt.Errorf("transaction modifier: %w", err)
	}
	if err = tx.Validate(); err != nil {
		observeFailure(stageAssemble)
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	a.log.Debug("transaction assembled",
		zap.Stringer("from", a.Sender()),
		zap.Bool("creation", tx.IsCreation()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("node nonce", res.nonce),
		zap.Stringer("gas price", tx.GasPrice),
		zap.Uint64("gas", res.gas),
		zap.Stringer("chain id", tx.ChainID))
	return tx, nil
}

// resolve performs four independent node requests concurrently and waits for
// all of them, the first error cancels the rest.
func (a *Actor) resolve(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (*resolved, error) {
	var (
		res    = new(resolved)
		sender = a.Sender()
		req    = ethrpc.NewCallRequest(&sender, to, value, data)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.client.GetTransactionCount(gctx, sender)
		if err != nil {
			return fmt.Errorf("failed to get nonce: %w", err)
		}
		res.nonce = n
		return nil
	})
	g.Go(func() error {
		p, err := a.client.GetGasPrice(gctx)
		if err != nil {
			return fmt.Errorf("failed to get gas price: %w", err)
		}
		res.gasPrice = p
		return nil
	})
	g.Go(func() error {
		id, err := a.client.GetChainID(gctx)
		if err != nil {
			return fmt.Errorf("failed to get chain id: %w", err)
		}
		res.chainID = id
		return nil
	})
	g.Go(func() error {
		gas, err := a.client.EstimateGas(gctx, req)
		if err != nil {
			return fmt.Errorf("failed to estimate gas: %w", err)
		}
		res.gas = gas
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Sign signs the given transaction with the account key. It's a local
// operation, the result is the canonical signed transaction encoding ready
// to be sent and its hash.
func (a *Actor) Sign(tx *transaction.Transaction) ([]byte, common.Hash, error) {
	start := time.Now()
	raw, h, err := a.account.SignTx(tx)
	observeStage(stageSign, start, err)
	return raw, h, err
}

package actor

import (
	"context"
	"time"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/rpcclient/waiter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Send sends arbitrary signed transaction to the network and returns its
// hash. It's not retried in case of failure. The hash of the given
// transaction is returned along with the error, so the result can be passed
// to Wait which accepts "already known" errors.
func (a *Actor) Send(ctx context.Context, raw []byte) (common.Hash, error) {
	start := time.Now()
	h, err := a.client.SendRawTransaction(ctx, raw)
	observeStage(stageSubmit, start, err)
	if err != nil {
		return rawHash(raw), err
	}
	transactionsSent.Inc()
	return h, nil
}

// rawHash returns the hash of the signed transaction, zero hash is returned
// for undecodable data.
func rawHash(raw []byte) common.Hash {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}
	}
	return tx.Hash()
}

// SendTx creates a transaction from the account to the given recipient (nil
// for contract creation) with the given value and data (see MakeUnsigned),
// signs and sends it to the network. It returns the hash of the sent
// transaction. Creation and submission are serialized for the account, so
// concurrent SendTx calls get different nonces.
func (a *Actor) SendTx(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (common.Hash, error) {
	seq := a.account.Sequencer()
	seq.Lock()
	defer seq.Unlock()

	tx, err := a.makeUnsigned(ctx, to, value, data)
	if err != nil {
		return common.Hash{}, err
	}
	raw, h, err := a.Sign(tx)
	if err != nil {
		return common.Hash{}, err
	}
	sent, err := a.Send(ctx, raw)
	if waiter.IsAlreadyKnown(err) {
		a.log.Debug("transaction already known", zap.Stringer("hash", h))
		sent, err = h, nil
	}
	if err != nil {
		// Nonce state is unknown now, ask the node next time.
		seq.Reset()
		a.log.Debug("transaction rejected",
			zap.Stringer("hash", h),
			zap.Uint64("nonce", tx.Nonce.Uint64()),
			zap.Error(err))
		return common.Hash{}, err
	}
	seq.Commit(tx.Nonce.Uint64())
	a.log.Debug("transaction sent",
		zap.Stringer("hash", sent),
		zap.Uint64("nonce", tx.Nonce.Uint64()))
	return sent, nil
}

// SendAndWait is similar to SendTx, but also waits for the transaction to be
// mined (see Waiter). The receipt is returned only if the transaction was
// executed successfully, failure.ErrTransactionReverted is returned
// otherwise.
func (a *Actor) SendAndWait(ctx context.Context, to *common.Address, value *uint256.Int, data []byte) (*types.Receipt, error) {
	h, err := a.SendTx(ctx, to, value, data)
	if err != nil {
		return nil, err
	}
	return a.WaitSuccess(ctx, h)
}

// WaitSuccess waits for the transaction with the given hash to be mined and
// checks its execution status, failure.ErrTransactionReverted is returned
// for failed transactions.
func (a *Actor) WaitSuccess(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	start := time.Now()
	r, err := a.Wait(ctx, h, nil)
	observeStage(stageConfirm, start, err)
	if err != nil {
		return nil, err
	}
	if r.Status != types.ReceiptStatusSuccessful {
		transactionsReverted.Inc()
		return nil, failure.NewTransactionReverted(h, r.Status)
	}
	return r, nil
}

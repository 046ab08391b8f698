package contract

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/easycontract/easycontract/internal/fakechain"
	"github.com/easycontract/easycontract/pkg/core/transaction"
	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/rpcclient"
	"github.com/easycontract/easycontract/pkg/rpcclient/actor"
	"github.com/easycontract/easycontract/pkg/rpcclient/invoker"
	"github.com/easycontract/easycontract/pkg/rpcclient/unwrap"
	"github.com/easycontract/easycontract/pkg/rpcclient/waiter"
	"github.com/easycontract/easycontract/pkg/smartcontract/abi"
	"github.com/easycontract/easycontract/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	secretA = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	secretB = "0000000000000000000000000000000000000000000000000000000000000002"
)

var testPoll = waiter.PollConfig{PollInterval: 5 * time.Millisecond}

func newAccount(t *testing.T, secret string) *wallet.Account {
	acc, err := wallet.NewAccountFromSecretKey(secret)
	require.NoError(t, err)
	return acc
}

func newActor(t *testing.T, ra actor.RPCActor, acc *wallet.Account) *actor.Actor {
	act, err := actor.NewTuned(ra, acc, actor.Options{
		Waiter: testPoll,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return act
}

func deployCounter(t *testing.T, chain *fakechain.Chain, act *actor.Actor) *Contract {
	addr, r, err := Deploy(context.Background(), act, fakechain.CounterCode, nil)
	require.NoError(t, err)
	require.Equal(t, r.ContractAddress, addr)
	c, err := NewFromJSON(chain, addr, []byte(fakechain.CounterABI))
	require.NoError(t, err)
	return c
}

func TestNewFromJSON(t *testing.T) {
	_, err := NewFromJSON(fakechain.New(), common.Address{}, []byte("{not an abi"))
	require.ErrorIs(t, err, failure.ErrMalformedInterface)

	c, err := NewFromJSON(fakechain.New(), common.Address{1}, []byte(fakechain.CounterABI))
	require.NoError(t, err)
	require.Equal(t, common.Address{1}, c.Address())
	require.NotNil(t, c.ABI())
	require.Equal(t, common.Address{1}.Hex(), c.String())
}

func TestDeployQuery(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		acc   = newAccount(t, secretA)
		c     = deployCounter(t, chain, newActor(t, chain, acc))
	)
	require.True(t, chain.IsDeployed(c.Address()))

	yeahs, err := unwrap.BigInt(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, int64(0), yeahs.Int64())

	owner, err := unwrap.Address(c.Query(ctx, "owner", nil))
	require.NoError(t, err)
	require.Equal(t, acc.Address(), owner)
}

func TestInvokeQuery(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
		c     = deployCounter(t, chain, act)
	)
	r, err := c.Invoke(ctx, act, nil, "yeah")
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, r.Status)

	yeahs, err := unwrap.Uint256(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, uint64(1), yeahs.Uint64())

	_, err = c.Invoke(ctx, act, nil, "add", 41)
	require.NoError(t, err)
	yeahs, err = unwrap.Uint256(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, uint64(42), yeahs.Uint64())
}

func TestNewWithInvoker(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
		c     = deployCounter(t, chain, act)
	)
	_, err := c.Invoke(ctx, act, nil, "add", 7)
	require.NoError(t, err)

	h := NewWithInvoker(invoker.New(chain, nil), c.Address(), c.ABI())
	yeahs, err := unwrap.Uint256(h.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, uint64(7), yeahs.Uint64())

	_, err = h.Query(ctx, "nope", nil)
	require.ErrorIs(t, err, failure.ErrUnknownFunction)
}

func TestSequentialNonces(t *testing.T) {
	var (
		ctx    = context.Background()
		chain  = fakechain.New()
		acc    = newAccount(t, secretA)
		act    = newActor(t, chain, acc)
		c      = deployCounter(t, chain, act)
		nonces []uint64
	)
	chain.SendHook = func(tx *types.Transaction) error {
		nonces = append(nonces, tx.Nonce())
		return nil
	}
	_, err := c.Invoke(ctx, act, nil, "yeah")
	require.NoError(t, err)
	_, err = c.Invoke(ctx, act, nil, "yeah")
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, nonces)
}

func TestResubmission(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
		c     = deployCounter(t, chain, act)
	)
	data, err := c.ABI().Pack("yeah")
	require.NoError(t, err)
	addr := c.Address()
	tx, err := act.MakeUnsigned(ctx, &addr, nil, data)
	require.NoError(t, err)
	raw, h, err := act.Sign(tx)
	require.NoError(t, err)

	h1, err := act.Send(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, h, h1)

	h2, err := act.Send(ctx, raw)
	require.True(t, waiter.IsAlreadyKnown(err))
	require.Equal(t, h, h2)

	r, err := act.Wait(ctx, h2, err)
	require.NoError(t, err)
	require.Equal(t, h, r.TxHash)
	require.Equal(t, types.ReceiptStatusSuccessful, r.Status)
}

func TestConcurrentInvokes(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		acc   = newAccount(t, secretA)
		c     = deployCounter(t, chain, newActor(t, chain, acc))
		wg    sync.WaitGroup
		n     = 8
		errs  = make(chan error, n)
	)
	for i := 0; i < n; i++ {
		// Different Actors of the same account share its sequencer.
		act := newActor(t, chain, acc)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Invoke(ctx, act, nil, "yeah")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	yeahs, err := unwrap.Int64(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, int64(n), yeahs)

	next, err := chain.GetTransactionCount(ctx, acc.Address())
	require.NoError(t, err)
	require.Equal(t, uint64(n+1), next)
}

func TestTokenTransfer(t *testing.T) {
	var (
		ctx    = context.Background()
		chain  = fakechain.New()
		a      = newAccount(t, secretA)
		b      = newAccount(t, secretB)
		act    = newActor(t, chain, a)
		supply = big.NewInt(1_000_000)
	)
	tokenABI, err := abi.Load([]byte(fakechain.TokenABI))
	require.NoError(t, err)
	addr, _, err := DeployWithArgs(ctx, act, fakechain.TokenCode, tokenABI, nil, supply)
	require.NoError(t, err)
	c := New(chain, addr, tokenABI)

	_, err = c.Invoke(ctx, act, nil, "transfer", b.Address(), 10)
	require.NoError(t, err)

	balA, err := unwrap.BigInt(c.Query(ctx, "balance", nil, a.Address()))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000-10), balA)
	balB, err := unwrap.BigInt(c.Query(ctx, "balance", nil, b.Address()))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), balB)
	require.Equal(t, balB, chain.Balance(addr, b.Address()))

	// B can't transfer more than it has.
	_, err = c.Invoke(ctx, newActor(t, chain, b), nil, "transfer", a.Address(), 11)
	require.ErrorIs(t, err, failure.ErrEstimationFailed)
}

func TestEncodingBeforeNetwork(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
		c     = deployCounter(t, chain, act)
		total = chain.TotalRequests()
	)
	_, err := c.Query(ctx, "add", nil)
	require.ErrorIs(t, err, failure.ErrEncoding)
	_, err = c.Invoke(ctx, act, nil, "add", 1, 2)
	require.ErrorIs(t, err, failure.ErrEncoding)
	_, err = c.SendInvoke(ctx, act, nil, "add", "not a number")
	require.ErrorIs(t, err, failure.ErrEncoding)
	_, err = c.Query(ctx, "nope", nil)
	require.ErrorIs(t, err, failure.ErrUnknownFunction)
	_, err = c.Invoke(ctx, act, nil, "nope")
	require.ErrorIs(t, err, failure.ErrUnknownFunction)

	tokenABI, err := abi.Load([]byte(fakechain.TokenABI))
	require.NoError(t, err)
	_, _, err = DeployWithArgs(ctx, act, fakechain.TokenCode, tokenABI, nil)
	require.ErrorIs(t, err, failure.ErrEncoding)
	_, _, err = Deploy(ctx, act, nil, nil)
	require.ErrorIs(t, err, failure.ErrEncoding)

	require.Equal(t, total, chain.TotalRequests())
}

func TestEstimationFailedNoSend(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
		c     = deployCounter(t, chain, act)
		sent  = chain.Requests("eth_sendRawTransaction")
	)
	_, err := c.Invoke(ctx, act, nil, "fail")
	require.ErrorIs(t, err, failure.ErrEstimationFailed)
	require.False(t, failure.IsRetryable(err))
	require.Equal(t, sent, chain.Requests("eth_sendRawTransaction"))
}

func TestInvokeReverted(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		acc   = newAccount(t, secretA)
		c     = deployCounter(t, chain, newActor(t, chain, acc))
	)
	// Not enough gas for execution.
	act, err := actor.NewTuned(chain, acc, actor.Options{
		Waiter: testPoll,
		Modifier: func(tx *transaction.Transaction) error {
			tx.Gas.SubUint64(tx.Gas, 1)
			return nil
		},
	})
	require.NoError(t, err)
	r, err := c.Invoke(ctx, act, nil, "yeah")
	require.ErrorIs(t, err, failure.ErrTransactionReverted)
	require.Nil(t, r)

	yeahs, err := unwrap.Int64(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, int64(0), yeahs)
}

func TestDeploymentFailed(t *testing.T) {
	var (
		chain = fakechain.New()
		act   = newActor(t, chain, newAccount(t, secretA))
	)
	chain.ReceiptHook = func(r *types.Receipt) {
		r.ContractAddress = common.Address{}
	}
	_, r, err := Deploy(context.Background(), act, fakechain.CounterCode, nil)
	require.ErrorIs(t, err, failure.ErrDeploymentFailed)
	require.NotNil(t, r)
}

func TestQueryDecodingError(t *testing.T) {
	// No code at the address, the node returns empty data.
	c, err := NewFromJSON(fakechain.New(), common.Address{1, 2, 3}, []byte(fakechain.CounterABI))
	require.NoError(t, err)
	_, err = c.Query(context.Background(), "yeahs", nil)
	require.ErrorIs(t, err, failure.ErrDecoding)
}

func TestInvokeTimeout(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		acc   = newAccount(t, secretA)
		c     = deployCounter(t, chain, newActor(t, chain, acc))
	)
	chain.MineAfter = 1000
	act, err := actor.NewTuned(chain, acc, actor.Options{
		Waiter: waiter.PollConfig{PollInterval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond},
	})
	require.NoError(t, err)
	_, err = c.Invoke(ctx, act, nil, "yeah")
	require.ErrorIs(t, err, failure.ErrTimeout)
	require.True(t, failure.IsRetryable(err))

	h, err := c.SendInvoke(ctx, act, nil, "yeah")
	require.NoError(t, err)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = act.WaitSuccess(cctx, h)
	require.ErrorIs(t, err, waiter.ErrContextDone)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, failure.ErrCanceled)
}

func TestOverRPC(t *testing.T) {
	var (
		ctx   = context.Background()
		chain = fakechain.New()
		url   = fakechain.NewServer(t, chain)
		acc   = newAccount(t, secretA)
	)
	client, err := rpcclient.New(ctx, url, rpcclient.Options{})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	act := newActor(t, client, acc)
	addr, _, err := Deploy(ctx, act, fakechain.CounterCode, nil)
	require.NoError(t, err)
	c, err := NewFromJSON(client, addr, []byte(fakechain.CounterABI))
	require.NoError(t, err)

	_, err = c.Invoke(ctx, act, uint256.NewInt(0), "add", big.NewInt(3))
	require.NoError(t, err)
	yeahs, err := unwrap.Int64(c.Query(ctx, "yeahs", nil))
	require.NoError(t, err)
	require.Equal(t, int64(3), yeahs)

	_, err = c.Invoke(ctx, act, nil, "fail")
	require.ErrorIs(t, err, failure.ErrEstimationFailed)

	height, err := client.GetBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, chain.Height(), height)
	blk, err := client.GetBlockByNumber(ctx, new(big.Int).SetUint64(height))
	require.NoError(t, err)
	require.Len(t, blk.Transactions(), 1)
	tx, pending, err := client.GetTransactionByHash(ctx, blk.Transactions()[0].Hash())
	require.NoError(t, err)
	require.False(t, pending)
	require.Equal(t, addr, *tx.To())
}

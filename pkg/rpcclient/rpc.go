/*
Package rpcclient implements an Ethereum JSON-RPC node client.

Client wraps go-ethereum's rpc and ethclient packages exposing the set of
node operations needed to build, submit and confirm transactions and to
read chain data. Every failure is returned as failure.ErrNode, except node
rejections of gas estimation requests that are failure.ErrEstimationFailed.
Receipts and blocks (immutable once returned) are cached.
*/
package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// GetTransactionCount returns the number of transactions sent from the
// given address including pending ones, that is the next nonce to be used.
func (c *Client) GetTransactionCount(ctx context.Context, addr common.Address) (uint64, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	n, err := c.eth.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, failure.NewNode(fmt.Errorf("eth_getTransactionCount: %w", err))
	}
	return n, nil
}

// GetGasPrice returns the gas price suggested by the node.
func (c *Client) GetGasPrice(ctx context.Context) (*uint256.Int, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	p, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, failure.NewNode(fmt.Errorf("eth_gasPrice: %w", err))
	}
	return toUint256("gas price", p)
}

// GetChainID returns the chain identifier used for replay protection.
func (c *Client) GetChainID(ctx context.Context) (*uint256.Int, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, failure.NewNode(fmt.Errorf("eth_chainId: %w", err))
	}
	return toUint256("chain id", id)
}

// EstimateGas returns the amount of gas the given call or contract creation
// would consume if executed at the latest state. If the node refuses to
// estimate (the call reverts or can't be executed at all),
// failure.ErrEstimationFailed is returned.
func (c *Client) EstimateGas(ctx context.Context, req *ethrpc.CallRequest) (uint64, error) {
	var res hexutil.Uint64

	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.rpc.CallContext(ctx, &res, "eth_estimateGas", req); err != nil {
		if isExecutionError(err) {
			return 0, failure.NewEstimationFailed(err)
		}
		return 0, failure.NewNode(fmt.Errorf("eth_estimateGas: %w", err))
	}
	return uint64(res), nil
}

// SendRawTransaction broadcasts signed transaction and returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var h common.Hash

	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.rpc.CallContext(ctx, &h, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		// The hash is still useful for "already known" errors.
		tx := new(types.Transaction)
		if tx.UnmarshalBinary(raw) == nil {
			h = tx.Hash()
		}
		return h, failure.NewNode(fmt.Errorf("eth_sendRawTransaction: %w", err))
	}
	return h, nil
}

// GetTransactionReceipt returns the receipt of a mined transaction. A nil
// receipt with no error is returned if the node doesn't know it (yet).
func (c *Client) GetTransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	if r, ok := c.receipts.Get(h); ok {
		return r.(*types.Receipt), nil
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	r, err := c.eth.TransactionReceipt(ctx, h)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, failure.NewNode(fmt.Errorf("eth_getTransactionReceipt: %w", err))
	}
	c.receipts.Add(h, r)
	return r, nil
}

// Call executes a message call at the latest block without creating a
// transaction and returns the output data.
func (c *Client) Call(ctx context.Context, req *ethrpc.CallRequest) ([]byte, error) {
	return c.call(ctx, req, "latest")
}

// CallAtHeight is similar to Call, but uses the state at the given block.
func (c *Client) CallAtHeight(ctx context.Context, req *ethrpc.CallRequest, height uint64) ([]byte, error) {
	return c.call(ctx, req, hexutil.EncodeUint64(height))
}

func (c *Client) call(ctx context.Context, req *ethrpc.CallRequest, block string) ([]byte, error) {
	var res hexutil.Bytes

	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := c.rpc.CallContext(ctx, &res, "eth_call", req, block); err != nil {
		return nil, failure.NewNode(fmt.Errorf("eth_call: %w", err))
	}
	return res, nil
}

// GetBlockNumber returns the number of the most recent block.
func (c *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, failure.NewNode(fmt.Errorf("eth_blockNumber: %w", err))
	}
	return n, nil
}

// GetBlockByNumber returns the block with the given number, nil number
// means the latest block.
func (c *Client) GetBlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	b, err := c.eth.BlockByNumber(ctx, number)
	if err != nil {
		return nil, failure.NewNode(fmt.Errorf("eth_getBlockByNumber: %w", err))
	}
	c.blocks.Add(b.Hash(), b)
	return b, nil
}

// GetBlockByHash returns the block with the given hash.
func (c *Client) GetBlockByHash(ctx context.Context, h common.Hash) (*types.Block, error) {
	if b, ok := c.blocks.Get(h); ok {
		return b.(*types.Block), nil
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	b, err := c.eth.BlockByHash(ctx, h)
	if err != nil {
		return nil, failure.NewNode(fmt.Errorf("eth_getBlockByHash: %w", err))
	}
	c.blocks.Add(h, b)
	return b, nil
}

// GetTransactionByHash returns the transaction with the given hash and
// whether it's still pending.
func (c *Client) GetTransactionByHash(ctx context.Context, h common.Hash) (*types.Transaction, bool, error) {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()
	tx, pending, err := c.eth.TransactionByHash(ctx, h)
	if err != nil {
		return nil, false, failure.NewNode(fmt.Errorf("eth_getTransactionByHash: %w", err))
	}
	return tx, pending, nil
}

func toUint256(what string, v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, failure.NewNode(fmt.Errorf("invalid %s returned", what))
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, failure.NewNode(fmt.Errorf("%s overflows 256 bits", what))
	}
	return u, nil
}

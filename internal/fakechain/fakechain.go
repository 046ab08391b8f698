/*
Package fakechain implements an in-memory Ethereum node for tests.

Chain accepts signed legacy transactions, checks their signatures and nonces
and executes them against Go models of contract code (see Code), every
accepted transaction is put into a separate block. Chain can be used
directly as a node client (it implements the set of methods needed by
actor.RPCActor) or via JSON-RPC over HTTP (see NewServer).
*/
package fakechain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Default chain parameters.
const (
	DefaultChainID  = 1337
	DefaultGasPrice = 1_000_000_000

	blockGasLimit = 30_000_000
	callGas       = 5_000
	creationGas   = 32_000
	genesisTime   = 1_700_000_000
)

// Chain is a fake node. Exported fields must be set before the Chain is
// used.
type Chain struct {
	// MineAfter is the number of receipt requests returning nothing before
	// a sent transaction is reported as mined.
	MineAfter int
	// SendHook is called for every decoded transaction before it's
	// accepted, an error rejects the transaction.
	SendHook func(tx *types.Transaction) error
	// ReceiptHook can alter receipts of accepted transactions.
	ReceiptHook func(r *types.Receipt)

	mtx       sync.Mutex
	ctx       context.Context
	chainID   *big.Int
	gasPrice  *big.Int
	signer    types.Signer
	codes     []*Code
	nonces    map[common.Address]uint64
	contracts map[common.Address]*deployed
	txs       map[common.Hash]*txEntry
	receipts  map[common.Hash]*pendingReceipt
	blocks    []*block
	requests  map[string]int
}

type deployed struct {
	code *Code
	impl Contract
}

type txEntry struct {
	tx    *types.Transaction
	from  common.Address
	block *block
}

type pendingReceipt struct {
	receipt *types.Receipt
	polls   int
}

type block struct {
	header *types.Header
	txs    []*txEntry
}

// New creates a Chain with default parameters, counter and token codes
// are deployable.
func New() *Chain {
	c := &Chain{
		ctx:       context.Background(),
		chainID:   big.NewInt(DefaultChainID),
		gasPrice:  big.NewInt(DefaultGasPrice),
		codes:     []*Code{NewCounterCode(), NewTokenCode()},
		nonces:    make(map[common.Address]uint64),
		contracts: make(map[common.Address]*deployed),
		txs:       make(map[common.Hash]*txEntry),
		receipts:  make(map[common.Hash]*pendingReceipt),
		requests:  make(map[string]int),
	}
	c.signer = types.NewEIP155Signer(c.chainID)
	c.addBlock(nil, 0)
	return c
}

// WithContext sets the context returned by Context.
func (c *Chain) WithContext(ctx context.Context) *Chain {
	c.ctx = ctx
	return c
}

// Register makes code deployable.
func (c *Chain) Register(code *Code) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.codes = append(c.codes, code)
}

// Requests returns the number of times the given method (node request name
// like "eth_call") was requested.
func (c *Chain) Requests(method string) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.requests[method]
}

// TotalRequests returns the number of node requests made.
func (c *Chain) TotalRequests() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	var n int
	for _, v := range c.requests {
		n += v
	}
	return n
}

// Height returns the latest block number.
func (c *Chain) Height() uint64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return uint64(len(c.blocks) - 1)
}

// Context implements waiter.RPCPollingBased.
func (c *Chain) Context() context.Context {
	return c.ctx
}

// GetTransactionCount returns the next nonce of the address.
func (c *Chain) GetTransactionCount(_ context.Context, addr common.Address) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_getTransactionCount"]++
	return c.nonces[addr], nil
}

// GetGasPrice returns the fixed gas price.
func (c *Chain) GetGasPrice(context.Context) (*uint256.Int, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_gasPrice"]++
	return uint256.MustFromBig(c.gasPrice), nil
}

// GetChainID returns the chain ID.
func (c *Chain) GetChainID(context.Context) (*uint256.Int, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_chainId"]++
	return uint256.MustFromBig(c.chainID), nil
}

// EstimateGas executes the request without applying its changes and
// returns the gas needed, failure.ErrEstimationFailed is returned for
// failed executions.
func (c *Chain) EstimateGas(_ context.Context, req *ethrpc.CallRequest) (uint64, error) {
	gas, err := c.estimateGas(req)
	if err != nil {
		return 0, failure.NewEstimationFailed(err)
	}
	return gas, nil
}

func (c *Chain) estimateGas(req *ethrpc.CallRequest) (uint64, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_estimateGas"]++
	from, to, value, data := unpackRequest(req)
	if _, err := c.execute(from, to, value, data, c.nonces[from], false); err != nil {
		return 0, err
	}
	return requiredGas(to == nil, data), nil
}

// Call executes the request at the latest state.
func (c *Chain) Call(_ context.Context, req *ethrpc.CallRequest) ([]byte, error) {
	res, err := c.call(req)
	if err != nil {
		return nil, failure.NewNode(err)
	}
	return res, nil
}

func (c *Chain) call(req *ethrpc.CallRequest) ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_call"]++
	from, to, value, data := unpackRequest(req)
	return c.execute(from, to, value, data, c.nonces[from], false)
}

// SendRawTransaction decodes, checks and executes the transaction.
func (c *Chain) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	h, err := c.sendRawTransaction(raw)
	if err != nil {
		return common.Hash{}, failure.NewNode(err)
	}
	return h, nil
}

func (c *Chain) sendRawTransaction(raw []byte) (common.Hash, error) {
	var tx = new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("rlp: %w", err)
	}
	if c.SendHook != nil {
		if err := c.SendHook(tx); err != nil {
			return common.Hash{}, err
		}
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_sendRawTransaction"]++
	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}
	if _, ok := c.txs[tx.Hash()]; ok {
		return common.Hash{}, errors.New("already known")
	}
	switch expected := c.nonces[from]; {
	case tx.Nonce() < expected:
		return common.Hash{}, fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	case tx.Nonce() > expected:
		return common.Hash{}, fmt.Errorf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}
	intrinsic := requiredGas(tx.To() == nil, tx.Data()) - callGas
	if tx.Gas() < intrinsic {
		return common.Hash{}, fmt.Errorf("intrinsic gas too low: have %d, want %d", tx.Gas(), intrinsic)
	}

	var (
		nonce   = tx.Nonce()
		status  = types.ReceiptStatusSuccessful
		gasUsed = requiredGas(tx.To() == nil, tx.Data())
		created common.Address
	)
	c.nonces[from] = nonce + 1
	if tx.Gas() < gasUsed {
		status, gasUsed = types.ReceiptStatusFailed, tx.Gas()
	} else if _, err := c.execute(from, tx.To(), tx.Value(), tx.Data(), nonce, true); err != nil {
		status = types.ReceiptStatusFailed
	}
	if tx.To() == nil {
		created = crypto.CreateAddress(from, nonce)
	}

	entry := &txEntry{tx: tx, from: from}
	b := c.addBlock([]*txEntry{entry}, gasUsed)
	entry.block = b
	c.txs[tx.Hash()] = entry

	r := &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            status,
		CumulativeGasUsed: gasUsed,
		Logs:              []*types.Log{},
		TxHash:            tx.Hash(),
		ContractAddress:   created,
		GasUsed:           gasUsed,
		EffectiveGasPrice: tx.GasPrice(),
		BlockHash:         b.header.Hash(),
		BlockNumber:       new(big.Int).Set(b.header.Number),
		TransactionIndex:  0,
	}
	if c.ReceiptHook != nil {
		c.ReceiptHook(r)
	}
	c.receipts[tx.Hash()] = &pendingReceipt{receipt: r}
	return tx.Hash(), nil
}

// GetTransactionReceipt returns the receipt after MineAfter requests for
// it, nil is returned before that and for unknown transactions.
func (c *Chain) GetTransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_getTransactionReceipt"]++
	p, ok := c.receipts[h]
	if !ok {
		return nil, nil
	}
	if p.polls < c.MineAfter {
		p.polls++
		return nil, nil
	}
	r := *p.receipt
	return &r, nil
}

// Balance returns token balance of the owner for the token deployed at
// the given address (for test assertions without the node interface).
func (c *Chain) Balance(tokenAddr, owner common.Address) *big.Int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	d, ok := c.contracts[tokenAddr]
	if !ok {
		return nil
	}
	t, ok := d.impl.(*token)
	if !ok {
		return nil
	}
	return new(big.Int).Set(t.balance(owner))
}

// IsDeployed returns true if there is a contract at the address.
func (c *Chain) IsDeployed(addr common.Address) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	_, ok := c.contracts[addr]
	return ok
}

// execute must be called with the lock held.
func (c *Chain) execute(from common.Address, to *common.Address, value *big.Int, data []byte, nonce uint64, commit bool) ([]byte, error) {
	if to == nil {
		return nil, c.create(from, data, nonce, commit)
	}
	d, ok := c.contracts[*to]
	if !ok {
		// Plain value transfer or a call to an empty account.
		return []byte{}, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: no method selector", ErrReverted)
	}
	m, err := d.code.ABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReverted, err)
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: bad arguments: %w", ErrReverted, err)
	}
	if !m.IsPayable() && value != nil && value.Sign() > 0 {
		return nil, fmt.Errorf("%w: method %s is not payable", ErrReverted, m.Name)
	}
	res, err := d.impl.Execute(from, value, m.Name, args, commit)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(res...)
}

func (c *Chain) create(from common.Address, data []byte, nonce uint64, commit bool) error {
	for _, code := range c.codes {
		if !bytes.HasPrefix(data, code.Bytecode) {
			continue
		}
		var args []any
		if len(code.ABI.Constructor.Inputs) > 0 {
			var err error
			args, err = code.ABI.Constructor.Inputs.Unpack(data[len(code.Bytecode):])
			if err != nil {
				return fmt.Errorf("%w: bad constructor arguments: %w", ErrReverted, err)
			}
		}
		impl, err := code.New(from, args)
		if err != nil {
			return err
		}
		if commit {
			c.contracts[crypto.CreateAddress(from, nonce)] = &deployed{code: code, impl: impl}
		}
		return nil
	}
	return fmt.Errorf("%w: invalid code", ErrReverted)
}

// addBlock must be called with the lock held.
func (c *Chain) addBlock(txs []*txEntry, gasUsed uint64) *block {
	var (
		number = uint64(len(c.blocks))
		h      = &types.Header{
			UncleHash:   types.EmptyUncleHash,
			Root:        types.EmptyRootHash,
			TxHash:      types.EmptyTxsHash,
			ReceiptHash: types.EmptyReceiptsHash,
			Difficulty:  new(big.Int),
			Number:      new(big.Int).SetUint64(number),
			GasLimit:    blockGasLimit,
			GasUsed:     gasUsed,
			Time:        genesisTime + number*12,
			Extra:       []byte{},
		}
	)
	if number > 0 {
		h.ParentHash = c.blocks[number-1].header.Hash()
	}
	if len(txs) > 0 {
		var hashes []byte
		for _, e := range txs {
			hashes = append(hashes, e.tx.Hash().Bytes()...)
		}
		h.TxHash = crypto.Keccak256Hash(hashes)
		h.ReceiptHash = crypto.Keccak256Hash(h.TxHash.Bytes())
	}
	b := &block{header: h, txs: txs}
	c.blocks = append(c.blocks, b)
	return b
}

func requiredGas(creation bool, data []byte) uint64 {
	var gas uint64 = 21_000
	for _, b := range data {
		if b == 0 {
			gas += 4
		} else {
			gas += 16
		}
	}
	if creation {
		gas += creationGas
	}
	return gas + callGas
}

func unpackRequest(req *ethrpc.CallRequest) (common.Address, *common.Address, *big.Int, []byte) {
	var (
		from  common.Address
		value = new(big.Int)
		data  []byte
	)
	if req.From != nil {
		from = *req.From
	}
	if req.Value != nil {
		value = req.Value.ToInt()
	}
	if req.Data != nil {
		data = *req.Data
	}
	return from, req.To, value, data
}

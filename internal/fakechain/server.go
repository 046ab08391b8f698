package fakechain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/easycontract/easycontract/pkg/ethrpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// NewServer starts an HTTP JSON-RPC server serving the Chain, it's stopped
// when the test ends. The server URL is returned.
func NewServer(t testing.TB, c *Chain) string {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethService{chain: c}); err != nil {
		t.Fatal(err)
	}
	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		hs.Close()
		srv.Stop()
	})
	return hs.URL
}

// ethService exposes Chain via the "eth" JSON-RPC namespace.
type ethService struct {
	chain *Chain
}

func (s *ethService) ChainId() *hexutil.Big {
	id, _ := s.chain.GetChainID(context.Background())
	return (*hexutil.Big)(id.ToBig())
}

func (s *ethService) GasPrice() *hexutil.Big {
	p, _ := s.chain.GetGasPrice(context.Background())
	return (*hexutil.Big)(p.ToBig())
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	s.chain.count("eth_blockNumber")
	return hexutil.Uint64(s.chain.Height())
}

func (s *ethService) GetTransactionCount(ctx context.Context, addr common.Address, _ string) hexutil.Uint64 {
	n, _ := s.chain.GetTransactionCount(ctx, addr)
	return hexutil.Uint64(n)
}

func (s *ethService) EstimateGas(req ethrpc.CallRequest) (hexutil.Uint64, error) {
	gas, err := s.chain.estimateGas(&req)
	return hexutil.Uint64(gas), err
}

func (s *ethService) Call(req ethrpc.CallRequest, _ string) (hexutil.Bytes, error) {
	return s.chain.call(&req)
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	return s.chain.sendRawTransaction(raw)
}

func (s *ethService) GetTransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	return s.chain.GetTransactionReceipt(ctx, h)
}

func (s *ethService) GetTransactionByHash(h common.Hash) (map[string]any, error) {
	c := s.chain
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_getTransactionByHash"]++
	e, ok := c.txs[h]
	if !ok {
		return nil, nil
	}
	return marshalTx(e)
}

func (s *ethService) GetBlockByNumber(number string, full bool) (map[string]any, error) {
	c := s.chain
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_getBlockByNumber"]++
	var n = uint64(len(c.blocks) - 1)
	switch number {
	case "latest", "pending", "safe", "finalized":
	case "earliest":
		n = 0
	default:
		v, err := hexutil.DecodeUint64(number)
		if err != nil {
			return nil, fmt.Errorf("invalid block number %q: %w", number, err)
		}
		if v >= uint64(len(c.blocks)) {
			return nil, nil
		}
		n = v
	}
	return marshalBlock(c.blocks[n], full)
}

func (s *ethService) GetBlockByHash(h common.Hash, full bool) (map[string]any, error) {
	c := s.chain
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests["eth_getBlockByHash"]++
	for _, b := range c.blocks {
		if b.header.Hash() == h {
			return marshalBlock(b, full)
		}
	}
	return nil, nil
}

func (c *Chain) count(method string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.requests[method]++
}

func marshalBlock(b *block, full bool) (map[string]any, error) {
	res, err := toMap(b.header)
	if err != nil {
		return nil, err
	}
	var txs = make([]any, 0, len(b.txs))
	for _, e := range b.txs {
		if !full {
			txs = append(txs, e.tx.Hash())
			continue
		}
		m, err := marshalTx(e)
		if err != nil {
			return nil, err
		}
		txs = append(txs, m)
	}
	res["transactions"] = txs
	res["uncles"] = []common.Hash{}
	return res, nil
}

func marshalTx(e *txEntry) (map[string]any, error) {
	res, err := toMap(e.tx)
	if err != nil {
		return nil, err
	}
	res["from"] = e.from
	res["blockHash"] = e.block.header.Hash()
	res["blockNumber"] = (*hexutil.Big)(e.block.header.Number)
	res["transactionIndex"] = hexutil.Uint64(0)
	return res, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	d := json.NewDecoder(strings.NewReader(string(raw)))
	d.UseNumber()
	if err := d.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

/*
Package ethrpc contains request types sent to Ethereum JSON-RPC nodes that
are not covered by go-ethereum's ethclient.
*/
package ethrpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// CallRequest is the call object used by eth_call and eth_estimateGas. Every
// field is optional and is omitted from the JSON entirely when not set,
// nodes treat an absent field differently from a present zero one (gas
// limit and price defaulting, sender balance checks).
type CallRequest struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     *hexutil.Bytes  `json:"data,omitempty"`
}

// NewCallRequest creates a CallRequest with the given optional sender,
// recipient, value and payload (nil means "absent"). Gas and GasPrice are
// left unset for the node to pick.
func NewCallRequest(from, to *common.Address, value *uint256.Int, data []byte) *CallRequest {
	var req = new(CallRequest)
	if from != nil {
		f := *from
		req.From = &f
	}
	if to != nil {
		t := *to
		req.To = &t
	}
	if value != nil {
		req.Value = (*hexutil.Big)(value.ToBig())
	}
	if data != nil {
		d := hexutil.Bytes(common.CopyBytes(data))
		req.Data = &d
	}
	return req
}

// WithGas sets gas limit of the request.
func (r *CallRequest) WithGas(gas uint64) *CallRequest {
	g := hexutil.Uint64(gas)
	r.Gas = &g
	return r
}

// WithGasPrice sets gas price of the request.
func (r *CallRequest) WithGasPrice(price *big.Int) *CallRequest {
	r.GasPrice = (*hexutil.Big)(new(big.Int).Set(price))
	return r
}

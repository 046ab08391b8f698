package fakechain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted is returned by contract models for failed executions.
var ErrReverted = errors.New("execution reverted")

// Contract is a Go model of deployed contract code.
type Contract interface {
	// Execute runs the method on behalf of from, state changes are applied
	// only when commit is set. Any error reverts the call.
	Execute(from common.Address, value *big.Int, method string, args []any, commit bool) ([]any, error)
}

// Code is a deployable contract: creation bytecode, its interface and the
// constructor of the model. Creation data is the bytecode followed by
// packed constructor arguments.
type Code struct {
	Bytecode []byte
	ABI      gethabi.ABI
	New      func(deployer common.Address, args []any) (Contract, error)
}

// CounterABI is the interface of the counter contract.
const CounterABI = `[
	{"type":"function","name":"yeahs","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"yeah","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"add","stateMutability":"nonpayable","inputs":[{"name":"n","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"fail","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

// TokenABI is the interface of the token contract, the whole supply is
// given to the deployer.
const TokenABI = `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"supply","type":"uint256"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balance","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// Fixture creation bytecodes, they're only used to find the model.
var (
	CounterCode = common.FromHex("0x6080604052348015600f57600080fd5b5060c68061001e6000396000f3fe436f756e746572")
	TokenCode   = common.FromHex("0x608060405234801561001057600080fd5b5060405161040038038061040083398101604081905261002f9161003754f3fe546f6b656e")
)

// NewCounterCode returns deployable counter contract.
func NewCounterCode() *Code {
	return &Code{
		Bytecode: CounterCode,
		ABI:      mustParse(CounterABI),
		New: func(deployer common.Address, _ []any) (Contract, error) {
			return &counter{owner: deployer, count: new(big.Int)}, nil
		},
	}
}

// NewTokenCode returns deployable token contract.
func NewTokenCode() *Code {
	return &Code{
		Bytecode: TokenCode,
		ABI:      mustParse(TokenABI),
		New: func(deployer common.Address, args []any) (Contract, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%w: bad constructor arguments", ErrReverted)
			}
			supply, ok := args[0].(*big.Int)
			if !ok {
				return nil, fmt.Errorf("%w: bad supply", ErrReverted)
			}
			return &token{
				supply:   new(big.Int).Set(supply),
				balances: map[common.Address]*big.Int{deployer: new(big.Int).Set(supply)},
			}, nil
		},
	}
}

func mustParse(s string) gethabi.ABI {
	a, err := gethabi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}

type counter struct {
	owner common.Address
	count *big.Int
}

func (c *counter) Execute(from common.Address, _ *big.Int, method string, args []any, commit bool) ([]any, error) {
	switch method {
	case "yeahs":
		return []any{new(big.Int).Set(c.count)}, nil
	case "owner":
		return []any{c.owner}, nil
	case "yeah":
		if commit {
			c.count.Add(c.count, big.NewInt(1))
		}
		return nil, nil
	case "add":
		n := args[0].(*big.Int)
		if commit {
			c.count.Add(c.count, n)
		}
		return nil, nil
	case "fail":
		return nil, fmt.Errorf("%w: always fails", ErrReverted)
	}
	return nil, fmt.Errorf("%w: unknown method %s", ErrReverted, method)
}

type token struct {
	supply   *big.Int
	balances map[common.Address]*big.Int
}

func (t *token) balance(a common.Address) *big.Int {
	if b, ok := t.balances[a]; ok {
		return b
	}
	return new(big.Int)
}

func (t *token) Execute(from common.Address, _ *big.Int, method string, args []any, commit bool) ([]any, error) {
	switch method {
	case "name":
		return []any{"Economy"}, nil
	case "symbol":
		return []any{"ECO"}, nil
	case "decimals":
		return []any{uint8(0)}, nil
	case "totalSupply":
		return []any{new(big.Int).Set(t.supply)}, nil
	case "balance":
		return []any{new(big.Int).Set(t.balance(args[0].(common.Address)))}, nil
	case "transfer":
		var (
			to     = args[0].(common.Address)
			amount = args[1].(*big.Int)
			have   = t.balance(from)
		)
		if have.Cmp(amount) < 0 {
			return nil, fmt.Errorf("%w: insufficient balance", ErrReverted)
		}
		if commit {
			t.balances[from] = new(big.Int).Sub(have, amount)
			t.balances[to] = new(big.Int).Add(t.balance(to), amount)
		}
		return []any{true}, nil
	}
	return nil, fmt.Errorf("%w: unknown method %s", ErrReverted, method)
}

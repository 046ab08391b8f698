/*
Package abi wraps go-ethereum's contract ABI codec with smartcontract.Parameter
based argument handling and failure kinds.

ABI is loaded once from its JSON description and is read-only afterwards, so
it can be shared between goroutines. Arguments are accepted either as
smartcontract.Parameter or as plain Go values (see
smartcontract.NewParameterFromValue), every one is checked against the
declared input type before encoding.
*/
package abi

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/smartcontract"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI is a parsed contract interface description.
type ABI struct {
	raw gethabi.ABI
}

// Load parses JSON interface description, failure.ErrMalformedInterface is
// returned if it can't be parsed.
func Load(data []byte) (*ABI, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, failure.NewMalformedInterface(errors.New("empty interface description"))
	}
	raw, err := gethabi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, failure.NewMalformedInterface(err)
	}
	return &ABI{raw: raw}, nil
}

// MustLoad is like Load, but panics on error. It's intended for embedded
// descriptions.
func MustLoad(data []byte) *ABI {
	a, err := Load(data)
	if err != nil {
		panic(err)
	}
	return a
}

// Method returns the method with the given name. Overloaded methods can be
// referenced by their full signature (like "transfer(address,uint256)") or
// by go-ethereum's disambiguated name (like "transfer0"), a bare name refers
// to the first declared overload.
func (a *ABI) Method(name string) (*gethabi.Method, error) {
	if m, ok := a.raw.Methods[name]; ok {
		return &m, nil
	}
	var found []gethabi.Method
	for _, m := range a.raw.Methods {
		if m.Sig == name || m.RawName == name {
			found = append(found, m)
		}
	}
	if len(found) != 1 {
		return nil, failure.NewUnknownFunction(name)
	}
	return &found[0], nil
}

// Methods returns all contract methods sorted by their signatures.
func (a *ABI) Methods() []gethabi.Method {
	res := make([]gethabi.Method, 0, len(a.raw.Methods))
	for _, m := range a.raw.Methods {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Sig < res[j].Sig })
	return res
}

// Events returns all contract events sorted by their signatures.
func (a *ABI) Events() []gethabi.Event {
	res := make([]gethabi.Event, 0, len(a.raw.Events))
	for _, e := range a.raw.Events {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Sig < res[j].Sig })
	return res
}

// Constructor returns contract constructor description (that has no inputs
// if the contract doesn't declare one).
func (a *ABI) Constructor() gethabi.Method {
	return a.raw.Constructor
}

// Pack encodes a call of the given method with the given arguments into
// call-data (4-byte method ID followed by encoded arguments). No network
// access is involved, so any arity or type mismatch is reported as
// failure.ErrEncoding before anything is sent.
func (a *ABI) Pack(method string, params ...any) ([]byte, error) {
	m, err := a.Method(method)
	if err != nil {
		return nil, err
	}
	args, err := packArguments(m.Sig, m.Inputs, params)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, m.ID...), args...), nil
}

// PackConstructor encodes constructor arguments to be appended to contract
// bytecode.
func (a *ABI) PackConstructor(params ...any) ([]byte, error) {
	return packArguments("constructor", a.raw.Constructor.Inputs, params)
}

// Unpack decodes return data of the given method into a list of go-ethereum
// ABI Go values (*big.Int for integers wider than 64 bits, native types for
// others, common.Address, [N]byte for fixed bytes, anonymous structs for
// tuples).
func (a *ABI) Unpack(method string, data []byte) ([]any, error) {
	m, err := a.Method(method)
	if err != nil {
		return nil, err
	}
	if len(m.Outputs) == 0 {
		return []any{}, nil
	}
	res, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, failure.NewDecoding(fmt.Errorf("%s: %w", m.Sig, err))
	}
	return res, nil
}

func packArguments(name string, inputs gethabi.Arguments, params []any) ([]byte, error) {
	if len(params) != len(inputs) {
		return nil, failure.NewEncoding(fmt.Errorf("%s: expected %d arguments, got %d", name, len(inputs), len(params)))
	}
	vals := make([]any, len(params))
	for i := range params {
		p, err := smartcontract.NewParameterFromValue(params[i])
		if err != nil {
			return nil, err
		}
		vals[i], err = toGoValue(inputs[i].Type, p)
		if err != nil {
			return nil, failure.NewEncoding(fmt.Errorf("%s: argument %d (%s): %w", name, i, inputs[i].Type, err))
		}
	}
	res, err := inputs.Pack(vals...)
	if err != nil {
		return nil, failure.NewEncoding(fmt.Errorf("%s: %w", name, err))
	}
	return res, nil
}

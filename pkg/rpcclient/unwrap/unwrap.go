/*
Package unwrap provides a set of proxy methods to process call results.

Functions implemented there are intended to be used as wrappers for other
functions that return ([]any, error) pair of decoded contract method outputs
(like contract.Contract.Query). These functions will check for error, check
the number of results, cast them to appropriate type (if everything is OK)
and then return a result or error. Every conversion problem is reported as
failure.ErrDecoding. They're mostly useful for other higher-level
contract-specific packages.
*/
package unwrap

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BigInt expects a single integer value returned (of any width). A big.Int
// is returned.
func BigInt(r []any, err error) (*big.Int, error) {
	itm, err := Item(r, err)
	if err != nil {
		return nil, err
	}
	switch v := itm.(type) {
	case *big.Int:
		if v == nil {
			return nil, failure.NewDecoding(errors.New("nil integer"))
		}
		return v, nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, wrongType("integer", itm)
	}
}

// Uint256 expects a single non-negative integer value not exceeding 256
// bits. An uint256.Int is returned.
func Uint256(r []any, err error) (*uint256.Int, error) {
	i, err := BigInt(r, err)
	if err != nil {
		return nil, err
	}
	if i.Sign() < 0 {
		return nil, failure.NewDecoding(errors.New("negative value"))
	}
	u, overflow := uint256.FromBig(i)
	if overflow {
		return nil, failure.NewDecoding(errors.New("uint256 overflow"))
	}
	return u, nil
}

// Int64 expects a single integer value that fits into int64.
func Int64(r []any, err error) (int64, error) {
	i, err := BigInt(r, err)
	if err != nil {
		return 0, err
	}
	if !i.IsInt64() {
		return 0, failure.NewDecoding(errors.New("int64 overflow"))
	}
	return i.Int64(), nil
}

// Bool expects a single bool value returned.
func Bool(r []any, err error) (bool, error) {
	itm, err := Item(r, err)
	if err != nil {
		return false, err
	}
	b, ok := itm.(bool)
	if !ok {
		return false, wrongType("bool", itm)
	}
	return b, nil
}

// Address expects a single address value returned.
func Address(r []any, err error) (common.Address, error) {
	itm, err := Item(r, err)
	if err != nil {
		return common.Address{}, err
	}
	a, ok := itm.(common.Address)
	if !ok {
		return common.Address{}, wrongType("address", itm)
	}
	return a, nil
}

// Hash expects a single bytes32 value returned.
func Hash(r []any, err error) (common.Hash, error) {
	itm, err := Item(r, err)
	if err != nil {
		return common.Hash{}, err
	}
	switch v := itm.(type) {
	case [32]byte:
		return v, nil
	case common.Hash:
		return v, nil
	default:
		return common.Hash{}, wrongType("bytes32", itm)
	}
}

// Bytes expects a single dynamic bytes value returned.
func Bytes(r []any, err error) ([]byte, error) {
	itm, err := Item(r, err)
	if err != nil {
		return nil, err
	}
	b, ok := itm.([]byte)
	if !ok {
		return nil, wrongType("bytes", itm)
	}
	return b, nil
}

// String expects a single string value returned, it must be a valid UTF-8
// string.
func String(r []any, err error) (string, error) {
	itm, err := Item(r, err)
	if err != nil {
		return "", err
	}
	s, ok := itm.(string)
	if !ok {
		return "", wrongType("string", itm)
	}
	if !utf8.ValidString(s) {
		return "", failure.NewDecoding(errors.New("not a UTF-8 string"))
	}
	return s, nil
}

// Item returns the only value from the result, an error is returned if
// there are none or more than one.
func Item(r []any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if len(r) == 0 {
		return nil, failure.NewDecoding(errors.New("result is empty"))
	}
	if len(r) > 1 {
		return nil, failure.NewDecoding(fmt.Errorf("too many (%d) result items", len(r)))
	}
	return r[0], nil
}

func wrongType(expected string, itm any) error {
	return failure.NewDecoding(fmt.Errorf("expected %s, got %T", expected, itm))
}

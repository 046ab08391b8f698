package smartcontract

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParamType represents the Type of the smart contract parameter.
type ParamType int

// A list of supported smart contract parameter types.
const (
	UnknownType ParamType = -1
	BoolType    ParamType = 0x10
	IntegerType ParamType = 0x11
	BytesType   ParamType = 0x12
	StringType  ParamType = 0x13
	AddressType ParamType = 0x14
	HashType    ParamType = 0x15
	ArrayType   ParamType = 0x20
)

// fileBytesParamType is a string representation of `filebytes` parameter type used in cli.
const fileBytesParamType string = "filebytes"

// String implements the stringer interface.
func (pt ParamType) String() string {
	switch pt {
	case BoolType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case BytesType:
		return "Bytes"
	case StringType:
		return "String"
	case AddressType:
		return "Address"
	case HashType:
		return "Hash"
	case ArrayType:
		return "Array"
	default:
		return ""
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (pt ParamType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + pt.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (pt *ParamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	p, err := ParseParamType(s)
	if err != nil {
		return err
	}

	*pt = p
	return nil
}

// ParseParamType is a user-friendly string to ParamType converter, it's
// case-insensitive and makes the following conversions:
//
//	bool, boolean -> BoolType
//	int, integer, uint -> IntegerType
//	address -> AddressType
//	hash, bytes32 -> HashType
//	bytes, filebytes -> BytesType
//	string -> StringType
//	array, tuple -> ArrayType
//
// anything else generates an error.
func ParseParamType(typ string) (ParamType, error) {
	switch strings.ToLower(typ) {
	case "bool", "boolean":
		return BoolType, nil
	case "int", "integer", "uint":
		return IntegerType, nil
	case "address":
		return AddressType, nil
	case "hash", "bytes32":
		return HashType, nil
	case "bytes", fileBytesParamType:
		return BytesType, nil
	case "string":
		return StringType, nil
	case "array", "tuple":
		return ArrayType, nil
	default:
		return UnknownType, fmt.Errorf("bad parameter type: %s", typ)
	}
}

// adjustValToType is a value type-checker and converter.
func adjustValToType(typ ParamType, val string) (any, error) {
	switch typ {
	case BoolType:
		switch val {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, errors.New("invalid boolean value")
		}
	case IntegerType:
		bi, ok := parseInteger(val)
		if !ok {
			return nil, errors.New("invalid integer value")
		}
		return bi, nil
	case AddressType:
		if !common.IsHexAddress(val) {
			return nil, errors.New("invalid address")
		}
		return common.HexToAddress(val), nil
	case HashType:
		b, err := decodeHex(val)
		if err != nil {
			return nil, err
		}
		if len(b) != common.HashLength {
			return nil, errors.New("invalid hash length")
		}
		return common.BytesToHash(b), nil
	case BytesType:
		return decodeHex(val)
	case StringType:
		return val, nil
	default:
		return nil, errors.New("unsupported parameter type")
	}
}

// inferParamType tries to infer the value type from its contents. It returns
// IntegerType for anything that looks like a decimal number, BoolType for
// true and false strings, AddressType for 20-byte hex strings, HashType for
// 32-byte ones, BytesType for any other valid hex-encoded string and
// StringType for anything else.
func inferParamType(val string) ParamType {
	if _, ok := new(big.Int).SetString(val, 10); ok {
		return IntegerType
	}

	if val == "true" || val == "false" {
		return BoolType
	}

	if unhexed, err := decodeHex(val); err == nil && strings.HasPrefix(val, "0x") {
		switch len(unhexed) {
		case common.AddressLength:
			return AddressType
		case common.HashLength:
			return HashType
		default:
			return BytesType
		}
	}
	// Anything can be a string.
	return StringType
}

func parseInteger(val string) (*big.Int, bool) {
	if strings.HasPrefix(val, "0x") {
		return new(big.Int).SetString(val[2:], 16)
	}
	return new(big.Int).SetString(val, 10)
}

func decodeHex(val string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(val, "0x"))
}

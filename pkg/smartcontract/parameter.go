package smartcontract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Parameter represents a smart contract parameter, a tagged value that can
// be encoded for any ABI type of the matching kind. Value representations
// are:
//
//	BoolType    -> bool
//	IntegerType -> *big.Int
//	AddressType -> common.Address
//	HashType    -> common.Hash
//	BytesType   -> []byte
//	StringType  -> string
//	ArrayType   -> []Parameter
type Parameter struct {
	// Type of the parameter.
	Type ParamType `json:"type"`
	// The actual value of the parameter.
	Value any `json:"value"`
}

type rawParameter struct {
	Type  ParamType       `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// NewParameter returns a Parameter with a proper initialized Value
// of the given ParamType.
func NewParameter(t ParamType) Parameter {
	return Parameter{
		Type:  t,
		Value: nil,
	}
}

// MarshalJSON implements the json.Marshaler interface. Integers are encoded
// as decimal strings, byte values as 0x-prefixed hex.
func (p Parameter) MarshalJSON() ([]byte, error) {
	var (
		resultRawValue json.RawMessage
		resultErr      error
	)
	switch p.Type {
	case BoolType, StringType, ArrayType:
		resultRawValue, resultErr = json.Marshal(p.Value)
	case IntegerType:
		val, ok := p.Value.(*big.Int)
		if !ok {
			resultErr = errors.New("invalid integer value")
			break
		}
		resultRawValue = json.RawMessage(`"` + val.String() + `"`)
	case AddressType, HashType:
		resultRawValue, resultErr = json.Marshal(p.Value)
	case BytesType:
		val, ok := p.Value.([]byte)
		if !ok {
			resultErr = errors.New("invalid bytes value")
			break
		}
		resultRawValue, resultErr = json.Marshal(hexutil.Bytes(val))
	default:
		resultErr = fmt.Errorf("can't marshal %s", p.Type)
	}
	if resultErr != nil {
		return nil, resultErr
	}
	return json.Marshal(rawParameter{
		Type:  p.Type,
		Value: resultRawValue,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *Parameter) UnmarshalJSON(data []byte) (err error) {
	var (
		r rawParameter
		s string
	)
	if err = json.Unmarshal(data, &r); err != nil {
		return
	}
	p.Type = r.Type
	p.Value = nil
	if len(r.Value) == 0 || string(r.Value) == "null" {
		return
	}
	switch r.Type {
	case BoolType:
		var b bool
		if err = json.Unmarshal(r.Value, &b); err != nil {
			return
		}
		p.Value = b
	case StringType:
		if err = json.Unmarshal(r.Value, &s); err != nil {
			return
		}
		p.Value = s
	case ArrayType:
		var rs []Parameter
		if err = json.Unmarshal(r.Value, &rs); err != nil {
			return
		}
		p.Value = rs
	case IntegerType, AddressType, HashType, BytesType:
		if err = json.Unmarshal(r.Value, &s); err != nil {
			return
		}
		p.Value, err = adjustValToType(r.Type, s)
	default:
		return fmt.Errorf("can't unmarshal %s", r.Type)
	}
	return
}

// NewParameterFromValue infers Parameter from the given Go value. Integers of
// any width (including *big.Int and *uint256.Int) become IntegerType, byte
// slices become BytesType, 32-byte arrays and common.Hash become HashType,
// other slices, arrays and structs (as returned for ABI tuples) become
// ArrayType. An existing Parameter is returned as is. Values of other types
// yield failure.ErrEncoding.
func NewParameterFromValue(value any) (Parameter, error) {
	var res = Parameter{
		Value: value,
	}
	switch v := value.(type) {
	case Parameter:
		return v, nil
	case *Parameter:
		if v == nil {
			return res, failure.NewEncoding(errors.New("nil parameter"))
		}
		return *v, nil
	case bool:
		res.Type = BoolType
	case int:
		res.Type, res.Value = IntegerType, big.NewInt(int64(v))
	case int8:
		res.Type, res.Value = IntegerType, big.NewInt(int64(v))
	case int16:
		res.Type, res.Value = IntegerType, big.NewInt(int64(v))
	case int32:
		res.Type, res.Value = IntegerType, big.NewInt(int64(v))
	case int64:
		res.Type, res.Value = IntegerType, big.NewInt(v)
	case uint:
		res.Type, res.Value = IntegerType, new(big.Int).SetUint64(uint64(v))
	case uint8:
		res.Type, res.Value = IntegerType, new(big.Int).SetUint64(uint64(v))
	case uint16:
		res.Type, res.Value = IntegerType, new(big.Int).SetUint64(uint64(v))
	case uint32:
		res.Type, res.Value = IntegerType, new(big.Int).SetUint64(uint64(v))
	case uint64:
		res.Type, res.Value = IntegerType, new(big.Int).SetUint64(v)
	case *big.Int:
		if v == nil {
			return res, failure.NewEncoding(errors.New("nil integer"))
		}
		res.Type, res.Value = IntegerType, new(big.Int).Set(v)
	case *uint256.Int:
		if v == nil {
			return res, failure.NewEncoding(errors.New("nil integer"))
		}
		res.Type, res.Value = IntegerType, v.ToBig()
	case common.Address:
		res.Type = AddressType
	case *common.Address:
		if v == nil {
			return res, failure.NewEncoding(errors.New("nil address"))
		}
		res.Type, res.Value = AddressType, *v
	case common.Hash:
		res.Type = HashType
	case [32]byte:
		res.Type, res.Value = HashType, common.Hash(v)
	case []byte:
		res.Type, res.Value = BytesType, common.CopyBytes(v)
	case string:
		res.Type = StringType
	case []Parameter:
		res.Type = ArrayType
	case []any:
		arr, err := NewParametersFromValues(v...)
		if err != nil {
			return res, err
		}
		res.Type, res.Value = ArrayType, arr
	default:
		return newParameterFromReflection(reflect.ValueOf(value))
	}

	return res, nil
}

func newParameterFromReflection(rv reflect.Value) (Parameter, error) {
	if !rv.IsValid() {
		return Parameter{}, failure.NewEncoding(errors.New("nil value"))
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return Parameter{Type: BytesType, Value: b}, nil
		}
		arr := make([]Parameter, 0, rv.Len())
		for i := range rv.Len() {
			p, err := NewParameterFromValue(rv.Index(i).Interface())
			if err != nil {
				return Parameter{}, err
			}
			arr = append(arr, p)
		}
		return Parameter{Type: ArrayType, Value: arr}, nil
	case reflect.Struct:
		arr := make([]Parameter, 0, rv.NumField())
		for i := range rv.NumField() {
			if !rv.Type().Field(i).IsExported() {
				continue
			}
			p, err := NewParameterFromValue(rv.Field(i).Interface())
			if err != nil {
				return Parameter{}, err
			}
			arr = append(arr, p)
		}
		return Parameter{Type: ArrayType, Value: arr}, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Parameter{}, failure.NewEncoding(errors.New("nil value"))
		}
		return NewParameterFromValue(rv.Elem().Interface())
	default:
		return Parameter{}, failure.NewEncoding(fmt.Errorf("unsupported parameter %s", rv.Type()))
	}
}

// NewParametersFromValues is similar to NewParameterFromValue except that it
// works with multiple values and returns a simple slice of Parameter.
func NewParametersFromValues(values ...any) ([]Parameter, error) {
	res := make([]Parameter, 0, len(values))
	for i := range values {
		elem, err := NewParameterFromValue(values[i])
		if err != nil {
			return nil, err
		}
		res = append(res, elem)
	}
	return res, nil
}

// NewParameterFromString returns a new Parameter initialized from the given
// string in "[type:]value" format. Type is optional and is inferred from
// the value when omitted, see ParseParamType for the list of accepted type
// names. `filebytes` type reads the value from the named file. Colons and
// backslashes are escaped with a backslash. Arrays can't be created this
// way.
func NewParameterFromString(in string) (*Parameter, error) {
	var (
		char    rune
		val     string
		err     error
		r       *strings.Reader
		buf     strings.Builder
		escaped bool
		hadType bool
		res     = &Parameter{}
		typStr  string
	)
	r = strings.NewReader(in)
	for char, _, err = r.ReadRune(); err == nil && char != utf8.RuneError; char, _, err = r.ReadRune() {
		if char == '\\' && !escaped {
			escaped = true
			continue
		}
		if char == ':' && !escaped && !hadType {
			typStr = buf.String()
			res.Type, err = ParseParamType(typStr)
			if err != nil {
				return nil, err
			}
			if res.Type == ArrayType {
				return nil, fmt.Errorf("unsupported parameter type %s", res.Type)
			}
			buf.Reset()
			hadType = true
			continue
		}
		escaped = false
		// We don't care about length and it never fails.
		_, _ = buf.WriteRune(char)
	}
	if char == utf8.RuneError {
		return nil, errors.New("bad UTF-8 string")
	}
	// The only other error `ReadRune` returns is io.EOF, which is fine and
	// expected, so we don't check err here.

	val = buf.String()
	if !hadType {
		res.Type = inferParamType(val)
	}
	if res.Type == BytesType && typStr == fileBytesParamType {
		res.Value, err = os.ReadFile(val)
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s' parameter from file '%s': %w", fileBytesParamType, val, err)
		}
		return res, nil
	}
	res.Value, err = adjustValToType(res.Type, val)
	if err != nil {
		return nil, err
	}
	return res, nil
}

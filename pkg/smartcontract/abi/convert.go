package abi

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/easycontract/easycontract/pkg/smartcontract"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// toGoValue converts p into the Go value go-ethereum expects for t.
func toGoValue(t gethabi.Type, p smartcontract.Parameter) (any, error) {
	switch t.T {
	case gethabi.IntTy, gethabi.UintTy:
		return toInteger(t, p)
	case gethabi.BoolTy:
		v, ok := p.Value.(bool)
		if p.Type != smartcontract.BoolType || !ok {
			return nil, mismatch(t, p)
		}
		return v, nil
	case gethabi.StringTy:
		v, ok := p.Value.(string)
		if p.Type != smartcontract.StringType || !ok {
			return nil, mismatch(t, p)
		}
		return v, nil
	case gethabi.AddressTy:
		v, ok := p.Value.(common.Address)
		if p.Type != smartcontract.AddressType || !ok {
			return nil, mismatch(t, p)
		}
		return v, nil
	case gethabi.BytesTy:
		v, ok := p.Value.([]byte)
		if p.Type != smartcontract.BytesType || !ok {
			return nil, mismatch(t, p)
		}
		return v, nil
	case gethabi.FixedBytesTy, gethabi.FunctionTy:
		return toFixedBytes(t, p)
	case gethabi.SliceTy, gethabi.ArrayTy:
		return toList(t, p)
	case gethabi.TupleTy:
		return toTuple(t, p)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

func mismatch(t gethabi.Type, p smartcontract.Parameter) error {
	return fmt.Errorf("can't use %s value as %s", p.Type, t)
}

func toInteger(t gethabi.Type, p smartcontract.Parameter) (any, error) {
	v, ok := p.Value.(*big.Int)
	if p.Type != smartcontract.IntegerType || !ok || v == nil {
		return nil, mismatch(t, p)
	}
	if t.T == gethabi.UintTy {
		if v.Sign() < 0 {
			return nil, errors.New("negative value for unsigned type")
		}
		if v.BitLen() > t.Size {
			return nil, fmt.Errorf("value doesn't fit into %d bits", t.Size)
		}
	} else {
		var (
			limit = new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
			lower = new(big.Int).Neg(limit)
		)
		if v.Cmp(limit) >= 0 || v.Cmp(lower) < 0 {
			return nil, fmt.Errorf("value doesn't fit into %d bits", t.Size)
		}
	}
	switch t.GetType().Kind() {
	case reflect.Uint8:
		return uint8(v.Uint64()), nil
	case reflect.Uint16:
		return uint16(v.Uint64()), nil
	case reflect.Uint32:
		return uint32(v.Uint64()), nil
	case reflect.Uint64:
		return v.Uint64(), nil
	case reflect.Int8:
		return int8(v.Int64()), nil
	case reflect.Int16:
		return int16(v.Int64()), nil
	case reflect.Int32:
		return int32(v.Int64()), nil
	case reflect.Int64:
		return v.Int64(), nil
	default:
		return new(big.Int).Set(v), nil
	}
}

func toFixedBytes(t gethabi.Type, p smartcontract.Parameter) (any, error) {
	var b []byte
	switch v := p.Value.(type) {
	case []byte:
		b = v
	case common.Hash:
		b = v.Bytes()
	default:
		return nil, mismatch(t, p)
	}
	if p.Type != smartcontract.BytesType && p.Type != smartcontract.HashType {
		return nil, mismatch(t, p)
	}
	typ := t.GetType()
	if len(b) != typ.Len() {
		return nil, fmt.Errorf("expected %d bytes, got %d", typ.Len(), len(b))
	}
	arr := reflect.New(typ).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

func toList(t gethabi.Type, p smartcontract.Parameter) (any, error) {
	elems, ok := p.Value.([]smartcontract.Parameter)
	if p.Type != smartcontract.ArrayType || !ok {
		return nil, mismatch(t, p)
	}
	var (
		typ = t.GetType()
		res reflect.Value
	)
	if t.T == gethabi.ArrayTy {
		if len(elems) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(elems))
		}
		res = reflect.New(typ).Elem()
	} else {
		res = reflect.MakeSlice(typ, len(elems), len(elems))
	}
	for i := range elems {
		v, err := toGoValue(*t.Elem, elems[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		res.Index(i).Set(reflect.ValueOf(v))
	}
	return res.Interface(), nil
}

func toTuple(t gethabi.Type, p smartcontract.Parameter) (any, error) {
	elems, ok := p.Value.([]smartcontract.Parameter)
	if p.Type != smartcontract.ArrayType || !ok {
		return nil, mismatch(t, p)
	}
	if len(elems) != len(t.TupleElems) {
		return nil, fmt.Errorf("expected %d tuple fields, got %d", len(t.TupleElems), len(elems))
	}
	res := reflect.New(t.TupleType).Elem()
	for i := range elems {
		v, err := toGoValue(*t.TupleElems[i], elems[i])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		res.Field(i).Set(reflect.ValueOf(v))
	}
	return res.Interface(), nil
}

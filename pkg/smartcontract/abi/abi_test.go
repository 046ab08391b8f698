package abi

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/easycontract/easycontract/pkg/failure"
	"github.com/easycontract/easycontract/pkg/smartcontract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testABI = `[
	{"type":"constructor","inputs":[{"name":"supply","type":"uint256"}]},
	{"type":"function","name":"balance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"memo","type":"bytes"}],
	 "outputs":[]},
	{"type":"function","name":"small","stateMutability":"pure",
	 "inputs":[{"name":"a","type":"uint8"},{"name":"b","type":"int64"},{"name":"c","type":"bytes4"}],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"complex","stateMutability":"pure",
	 "inputs":[
		{"name":"p","type":"tuple","components":[{"name":"owner","type":"address"},{"name":"weight","type":"uint32"}]},
		{"name":"ids","type":"uint256[]"},
		{"name":"pair","type":"bool[2]"},
		{"name":"h","type":"bytes32"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]}
]`

var (
	addrA = common.HexToAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	addrB = common.HexToAddress("0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF")
)

func loadTest(t *testing.T) *ABI {
	a, err := Load([]byte(testABI))
	require.NoError(t, err)
	return a
}

func TestLoad(t *testing.T) {
	for _, bad := range []string{"", "   ", "{", `[{"type":"function","name":"x","inputs":[{"type":"foo"}]}]`} {
		_, err := Load([]byte(bad))
		require.ErrorIs(t, err, failure.ErrMalformedInterface, bad)
	}
	require.Panics(t, func() { MustLoad([]byte("nope")) })

	a := loadTest(t)
	methods := a.Methods()
	require.Len(t, methods, 5)
	require.Equal(t, "balance(address)", methods[0].Sig)

	events := a.Events()
	require.Len(t, events, 1)
	require.Equal(t, "Transfer(address,address,uint256)", events[0].Sig)

	require.Len(t, a.Constructor().Inputs, 1)
}

func TestMethod(t *testing.T) {
	a := loadTest(t)

	m, err := a.Method("balance")
	require.NoError(t, err)
	require.Equal(t, "balance(address)", m.Sig)

	m, err = a.Method("transfer(address,uint256,bytes)")
	require.NoError(t, err)
	require.Len(t, m.Inputs, 3)

	for _, name := range []string{"missing", "transfer(address)", ""} {
		_, err = a.Method(name)
		require.ErrorIs(t, err, failure.ErrUnknownFunction, name)
	}
}

func TestPack(t *testing.T) {
	a := loadTest(t)

	data, err := a.Pack("balance", addrA)
	require.NoError(t, err)
	// keccak256("balance(address)")[:4] followed by the left-padded address.
	require.Equal(t, "e3d670d7"+"0000000000000000000000007e5f4552091a69125d5dfcb7b8c2659029395bdf", hex.EncodeToString(data))

	// Plain values and Parameters are interchangeable.
	p, err := a.Pack("transfer(address,uint256)", smartcontract.Parameter{
		Type:  smartcontract.AddressType,
		Value: addrB,
	}, big.NewInt(10))
	require.NoError(t, err)
	v, err := a.Pack("transfer(address,uint256)", addrB, 10)
	require.NoError(t, err)
	require.Equal(t, p, v)
	require.Equal(t, "a9059cbb", hex.EncodeToString(v[:4]))

	_, err = a.Pack("small", uint8(255), -5, []byte{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = a.Pack("complex",
		[]any{addrA, 7},
		[]any{1, 2, 3},
		[]any{true, false},
		common.HexToHash("0x01"))
	require.NoError(t, err)
}

func TestPackErrors(t *testing.T) {
	a := loadTest(t)

	var cases = map[string]struct {
		method string
		params []any
	}{
		"too few":            {"balance", nil},
		"too many":           {"balance", []any{addrA, addrB}},
		"wrong type":         {"balance", []any{"str"}},
		"negative unsigned":  {"transfer(address,uint256)", []any{addrA, -1}},
		"uint8 overflow":     {"small", []any{256, 0, []byte{1, 2, 3, 4}}},
		"int64 overflow":     {"small", []any{1, new(big.Int).Lsh(big.NewInt(1), 63), []byte{1, 2, 3, 4}}},
		"fixed bytes length": {"small", []any{1, 0, []byte{1, 2}}},
		"tuple arity":        {"complex", []any{[]any{addrA}, []any{}, []any{true, false}, common.Hash{}}},
		"array length":       {"complex", []any{[]any{addrA, 1}, []any{}, []any{true}, common.Hash{}}},
		"array element":      {"complex", []any{[]any{addrA, 1}, []any{"x"}, []any{true, false}, common.Hash{}}},
		"unsupported value":  {"balance", []any{1.5}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := a.Pack(tc.method, tc.params...)
			require.ErrorIs(t, err, failure.ErrEncoding)
		})
	}

	_, err := a.Pack("unknown")
	require.ErrorIs(t, err, failure.ErrUnknownFunction)
}

func TestPackConstructor(t *testing.T) {
	a := loadTest(t)

	data, err := a.PackConstructor(1000)
	require.NoError(t, err)
	require.Len(t, data, 32)
	require.Equal(t, int64(1000), new(big.Int).SetBytes(data).Int64())

	_, err = a.PackConstructor()
	require.ErrorIs(t, err, failure.ErrEncoding)

	empty, err := Load([]byte(`[]`))
	require.NoError(t, err)
	data, err = empty.PackConstructor()
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestUnpack(t *testing.T) {
	a := loadTest(t)

	ret := common.LeftPadBytes(big.NewInt(990).Bytes(), 32)
	vals, err := a.Unpack("balance", ret)
	require.NoError(t, err)
	require.Equal(t, []any{big.NewInt(990)}, vals)

	vals, err = a.Unpack("small", common.LeftPadBytes([]byte{7}, 32))
	require.NoError(t, err)
	require.Equal(t, []any{uint8(7)}, vals)

	vals, err = a.Unpack("transfer(address,uint256,bytes)", nil)
	require.NoError(t, err)
	require.Empty(t, vals)

	_, err = a.Unpack("balance", []byte{1, 2, 3})
	require.ErrorIs(t, err, failure.ErrDecoding)
	_, err = a.Unpack("balance", nil)
	require.ErrorIs(t, err, failure.ErrDecoding)
	_, err = a.Unpack("nope", ret)
	require.ErrorIs(t, err, failure.ErrUnknownFunction)
}

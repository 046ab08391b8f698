package cmdargs

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/easycontract/easycontract/pkg/smartcontract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseParams_Simple(t *testing.T) {
	params, err := ParseParams([]string{
		"42",
		"int:0x10",
		"true",
		"0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		"0xdead",
		"string:0xdead",
		"hello",
		`a\:b`,
	})
	require.NoError(t, err)
	require.Equal(t, []smartcontract.Parameter{
		{Type: smartcontract.IntegerType, Value: big.NewInt(42)},
		{Type: smartcontract.IntegerType, Value: big.NewInt(16)},
		{Type: smartcontract.BoolType, Value: true},
		{Type: smartcontract.AddressType, Value: common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")},
		{Type: smartcontract.BytesType, Value: []byte{0xde, 0xad}},
		{Type: smartcontract.StringType, Value: "0xdead"},
		{Type: smartcontract.StringType, Value: "hello"},
		{Type: smartcontract.StringType, Value: "a:b"},
	}, params)
}

func TestParseParams_Arrays(t *testing.T) {
	testCases := map[string]struct {
		input    []string
		expected []smartcontract.Parameter
	}{
		"empty": {
			input:    []string{},
			expected: []smartcontract.Parameter{},
		},
		"empty array": {
			input: []string{"[", "]"},
			expected: []smartcontract.Parameter{
				{Type: smartcontract.ArrayType, Value: []smartcontract.Parameter{}},
			},
		},
		"nested": {
			input: []string{"a", "[", "1", "[", "b", "]", "]", "2"},
			expected: []smartcontract.Parameter{
				{Type: smartcontract.StringType, Value: "a"},
				{Type: smartcontract.ArrayType, Value: []smartcontract.Parameter{
					{Type: smartcontract.IntegerType, Value: big.NewInt(1)},
					{Type: smartcontract.ArrayType, Value: []smartcontract.Parameter{
						{Type: smartcontract.StringType, Value: "b"},
					}},
				}},
				{Type: smartcontract.IntegerType, Value: big.NewInt(2)},
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			actual, err := ParseParams(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, actual)
		})
	}
}

func TestParseParams_Errors(t *testing.T) {
	testCases := map[string]struct {
		args []string
		msg  string
	}{
		"missing closing bracket":        {[]string{"[", "1"}, `missing closing bracket (1 unclosed "[")`},
		"missing opening bracket":        {[]string{"1", "]"}, `missing opening bracket for "]" at #2`},
		"nested missing closing bracket": {[]string{"[", "[", "1", "]"}, "missing closing bracket"},
		"bad type":                       {[]string{"uint8:1"}, "argument #1"},
		"bad value":                      {[]string{"int:one"}, "argument #1"},
		"bad nested value":               {[]string{"[", "bool:yes", "]"}, "argument #2"},
		"array type":                     {[]string{"array:1"}, "argument #1"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseParams(tc.args)
			require.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestParseParams_FileBytes(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(p, []byte{1, 2, 3}, 0o644))
	params, err := ParseParams([]string{"filebytes:" + p})
	require.NoError(t, err)
	require.Equal(t, []smartcontract.Parameter{{Type: smartcontract.BytesType, Value: []byte{1, 2, 3}}}, params)

	_, err = ParseParams([]string{"filebytes:" + filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

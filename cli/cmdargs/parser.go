package cmdargs

import (
	"fmt"

	"github.com/easycontract/easycontract/pkg/smartcontract"
	"github.com/urfave/cli/v2"
)

const (
	// ArrayStartSeparator marks the start of array cli arg.
	ArrayStartSeparator = "["
	// ArrayEndSeparator marks the end of array cli arg.
	ArrayEndSeparator = "]"
)

const (
	// ParamsParsingDoc is a documentation for parameters parsing.
	ParamsParsingDoc = `   Arguments are converted to the types of the method ABI, they're either
   specified explicitly or being inferred from the value. To specify the type
   manually use "type:value" syntax where the type is one of the following:
   'bool', 'int', 'address', 'hash', 'bytes', 'filebytes' or 'string'.
   Array and tuple arguments are also supported: use special space-separated
   '[' and ']' symbols around array values to denote array bounds. Nested
   arrays are also supported.

   Given values are type-checked against given types with the following
   restrictions applied:
    * 'bool' type values are 'true' and 'false'.
    * 'int' values are decimal integers or 0x-prefixed hex ones.
    * 'address' values are hex-encoded 20-bytes long (after decoding) strings.
    * 'hash' type values should be hex-encoded and have a (decoded) length
      of 32 bytes.
    * 'bytes' type values are any hex-encoded things.
    * 'filebytes' type values are filenames with the argument value inside.
    * 'string' type values are any valid UTF-8 strings. In the value's part of
      the string the colon looses it's special meaning as a separator between
      type and value and is taken literally.

   If no type is explicitly specified, it is inferred from the value using the
   following logic:
    - anything that can be interpreted as a decimal integer gets
      an 'int' type
    - 'true' and 'false' strings get 'bool' type
    - 0x-prefixed 20 bytes long hex-encoded strings get 'address' type
    - 0x-prefixed 32 bytes long hex-encoded values get 'hash' type
    - any other 0x-prefixed valid hex-encoded values get 'bytes' type
    - anything else is a 'string'

   Backslash character is used as an escape character and allows to use colon in
   an implicitly typed string. For any other characters it has no special
   meaning, to get a literal backslash in the string use the '\\' sequence.

   Examples:
    * 'int:42' is an integer with a value of 42
    * '42' is an integer with a value of 42
    * 'bad' is a string with a value of 'bad'
    * '0xdead' is a byte array with a value of 'dead'
    * 'string:0xdead' is a string with a value of '0xdead'
    * 'filebytes:my_data.txt' is bytes decoded from a content of my_data.txt
    * '0x2c7536E3605D9C16a7a3D7b1898e529396a65c23' is an address
    * 'string\:string' is a string with a value of 'string:string'
    * '[ a b c ]' is an array with strings values 'a', 'b' and 'c'
    * '[ a b [ c d ] e ]' is an array with 4 values: string 'a', string 'b',
      array of two strings 'c' and 'd', string 'e'
    * '[ ]' is an empty array`
)

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check for them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) cli.ExitCoder {
	if ctx.Args().Present() {
		return cli.Exit("additional arguments given while this command expects none", 1)
	}
	return nil
}

// GetParamsFromContext parses contract method parameters from the context
// args starting from the specified offset.
func GetParamsFromContext(ctx *cli.Context, offset int) ([]any, cli.ExitCoder) {
	args := ctx.Args().Slice()
	if offset > len(args) {
		offset = len(args)
	}
	params, err := ParseParams(args[offset:])
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	res := make([]any, len(params))
	for i := range params {
		res[i] = params[i]
	}
	return res, nil
}

// ParseParams extracts array of smartcontract.Parameter from the given args.
// Words between ArrayStartSeparator and ArrayEndSeparator become ArrayType
// parameters, arrays can be nested.
func ParseParams(args []string) ([]smartcontract.Parameter, error) {
	// levels[0] is the top level, every open bracket adds a level.
	levels := [][]smartcontract.Parameter{{}}
	for i, s := range args {
		last := len(levels) - 1
		switch s {
		case ArrayStartSeparator:
			levels = append(levels, []smartcontract.Parameter{})
		case ArrayEndSeparator:
			if last == 0 {
				return nil, fmt.Errorf("invalid array syntax: missing opening bracket for %q at #%d", ArrayEndSeparator, i+1)
			}
			arr := smartcontract.Parameter{Type: smartcontract.ArrayType, Value: levels[last]}
			levels = levels[:last]
			levels[last-1] = append(levels[last-1], arr)
		default:
			param, err := smartcontract.NewParameterFromString(s)
			if err != nil {
				return nil, fmt.Errorf("failed to parse argument #%d: %w", i+1, err)
			}
			levels[last] = append(levels[last], *param)
		}
	}
	if len(levels) != 1 {
		return nil, fmt.Errorf("invalid array syntax: missing closing bracket (%d unclosed %q)", len(levels)-1, ArrayStartSeparator)
	}
	return levels[0], nil
}

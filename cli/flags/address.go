/*
Package flags contains custom urfave/cli flag types.
*/
package flags

import (
	"flag"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

// Address is a flag.Value holding an Ethereum address.
type Address struct {
	IsSet bool
	Value common.Address
}

// AddressFlag is a cli.Flag accepting an Ethereum address. Each Apply
// registers a new Address, the parsed value is only available via the
// context (see GetAddress).
type AddressFlag struct {
	Name     string
	Aliases  []string
	Usage    string
	Required bool
	Hidden   bool
}

var (
	_ flag.Value       = (*Address)(nil)
	_ cli.Flag         = AddressFlag{}
	_ cli.RequiredFlag = AddressFlag{}
	_ cli.VisibleFlag  = AddressFlag{}
)

// String implements the fmt.Stringer interface.
func (a Address) String() string {
	return a.Value.Hex()
}

// Set implements the flag.Value interface.
func (a *Address) Set(s string) error {
	addr, err := ParseAddress(s)
	if err != nil {
		return cli.Exit(err, 1)
	}
	a.IsSet = true
	a.Value = addr
	return nil
}

// Address returns the value of the flag, it panics if the value wasn't set.
func (a *Address) Address() common.Address {
	if !a.IsSet {
		panic("address was not set")
	}
	return a.Value
}

// String returns the help line of the flag.
func (f AddressFlag) String() string {
	var b strings.Builder
	for i, name := range f.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(usageName(name))
	}
	b.WriteString("\t")
	b.WriteString(f.Usage)
	return b.String()
}

func usageName(name string) string {
	prefix := "--"
	if len(name) == 1 {
		prefix = "-"
	}
	return prefix + name + " value"
}

// Names returns the names of the flag.
func (f AddressFlag) Names() []string {
	return cli.FlagNames(f.Name, f.Aliases)
}

// IsSet always returns false, parsed values are tracked by the flag set.
func (f AddressFlag) IsSet() bool {
	return false
}

// IsRequired returns whether the flag is required.
func (f AddressFlag) IsRequired() bool {
	return f.Required
}

// IsVisible returns true if the flag is not hidden.
func (f AddressFlag) IsVisible() bool {
	return !f.Hidden
}

// TakesValue returns true, the flag always needs a value.
func (f AddressFlag) TakesValue() bool {
	return true
}

// GetUsage returns the usage string for the flag.
func (f AddressFlag) GetUsage() string {
	return f.Usage
}

// Apply registers the flag with all of its names in the given set.
func (f AddressFlag) Apply(set *flag.FlagSet) error {
	v := new(Address)
	for _, name := range f.Names() {
		set.Var(v, name, f.Usage)
	}
	return nil
}

// GetAddress returns the address given via the flag with the given name,
// false is returned if the flag wasn't used.
func GetAddress(ctx *cli.Context, name string) (common.Address, bool) {
	a, ok := ctx.Generic(name).(*Address)
	if !ok || !a.IsSet {
		return common.Address{}, false
	}
	return a.Value, true
}

// ParseAddress parses a hex-encoded 20-byte address with an optional 0x
// prefix. Mixed-case input must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	digits := s
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		digits = s[2:]
	}
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) {
		m, err := common.NewMixedcaseAddressFromString("0x" + digits)
		if err != nil || !m.ValidChecksum() {
			return common.Address{}, fmt.Errorf("invalid address checksum %q", s)
		}
	}
	return common.HexToAddress(s), nil
}

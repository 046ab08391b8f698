package keytestcases

// Ktype represents key testcase values (different encodings of the key).
type Ktype struct {
	Address,
	PrivateKey,
	PublicKey string
	Invalid bool
}

// Arr contains a set of known keys in Ktype format.
var Arr = []Ktype{
	{
		Address:    "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf",
		PrivateKey: "0000000000000000000000000000000000000000000000000000000000000001",
		PublicKey:  "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8",
	},
	{
		Address:    "0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF",
		PrivateKey: "0000000000000000000000000000000000000000000000000000000000000002",
	},
	{
		Address:    "0x6813Eb9362372EEF6200f3b1dbC3f819671cBA69",
		PrivateKey: "0x0000000000000000000000000000000000000000000000000000000000000003",
	},
	{
		Address:    "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		PrivateKey: "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	},
	{
		// Zero scalar.
		PrivateKey: "0000000000000000000000000000000000000000000000000000000000000000",
		Invalid:    true,
	},
	{
		// Curve order N.
		PrivateKey: "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
		Invalid:    true,
	},
	{
		// Too short.
		PrivateKey: "73b444918e17f54910e117e3d84a1efa4f3a2b2e994de3ca0348600f08c9fc",
		Invalid:    true,
	},
	{
		PrivateKey: "not a hex key at all, not a hex key at all, not a hex key at all",
		Invalid:    true,
	},
}

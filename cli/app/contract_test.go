package app

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/easycontract/easycontract/cli/options"
	"github.com/easycontract/easycontract/pkg/smartcontract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func (e *executor) testInvoke(t *testing.T, args ...string) []smartcontract.Parameter {
	e.Run(t, append([]string{"easycontract", "contract", "testinvokefunction",
		"--config-file", e.Config}, args...)...)
	var res []smartcontract.Parameter
	require.NoError(t, json.Unmarshal(e.Out.Bytes(), &res))
	return res
}

func requireInteger(t *testing.T, res []smartcontract.Parameter, expected int64) {
	require.Len(t, res, 1)
	require.Equal(t, smartcontract.IntegerType, res[0].Type)
	require.Equal(t, 0, big.NewInt(expected).Cmp(res[0].Value.(*big.Int)))
}

func TestContractDeployInvoke(t *testing.T) {
	e := newExecutor(t)
	code, abi := e.counterFiles(t)
	addr, _ := e.deploy(t, code, abi, "counter")

	requireInteger(t, e.testInvoke(t, "counter", "yeahs"), 0)

	t.Run("await", func(t *testing.T) {
		e.Run(t, "easycontract", "contract", "invokefunction",
			"--config-file", e.Config,
			"--secret-key", validatorKey,
			"--await",
			"counter", "yeah")
		e.checkNextLine(t, `^Transaction: 0x[0-9a-f]{64}$`)
		e.checkNextLine(t, `^Block: 2$`)
		e.checkNextLine(t, `^GasUsed: \d+$`)
		e.checkEOF(t)
		requireInteger(t, e.testInvoke(t, "counter", "yeahs"), 1)
	})

	t.Run("by address, no await", func(t *testing.T) {
		e.Run(t, "easycontract", "contract", "invokefunction",
			"--config-file", e.Config,
			"--secret-key", validatorKey,
			"--abi", abi,
			addr.Hex(), "add", "int:41")
		e.checkNextLine(t, `^Sent invocation transaction 0x[0-9a-f]{64}$`)
		e.checkEOF(t)
		requireInteger(t, e.testInvoke(t, addr.Hex(), "yeahs"), 42)
	})

	t.Run("ABI from the registry by address", func(t *testing.T) {
		require.Equal(t, []smartcontract.Parameter{
			{Type: smartcontract.AddressType, Value: common.HexToAddress(validatorAddr)},
		}, e.testInvoke(t, addr.Hex(), "owner"))
	})

	t.Run("historic", func(t *testing.T) {
		res := e.testInvoke(t, "--historic", "1", "counter", "yeahs")
		require.Len(t, res, 1)
	})

	t.Run("from", func(t *testing.T) {
		res := e.testInvoke(t, "--from", validatorAddr, "counter", "yeahs")
		require.Len(t, res, 1)
	})

	t.Run("reverted", func(t *testing.T) {
		requests := e.Chain.Requests("eth_sendRawTransaction")
		e.RunWithErrorCheck(t, "gas estimation failed", "easycontract", "contract", "invokefunction",
			"--config-file", e.Config,
			"--secret-key", validatorKey,
			"--await",
			"counter", "fail")
		require.Equal(t, requests, e.Chain.Requests("eth_sendRawTransaction"))
	})

	t.Run("list", func(t *testing.T) {
		e.Run(t, "easycontract", "contract", "list", "--config-file", e.Config)
		e.checkNextLine(t, `^counter\s+`+addr.Hex()+`\s+1\s+\S+$`)
		e.checkEOF(t)
	})
}

func TestContractDeployWithArgs(t *testing.T) {
	e := newExecutor(t)
	code, abi := e.tokenFiles(t)
	addr, _ := e.deploy(t, code, abi, "", "1000")
	require.Equal(t, big.NewInt(1000), e.Chain.Balance(addr, common.HexToAddress(validatorAddr)))

	e.Run(t, "easycontract", "contract", "list", "--registry", e.Registry)
	e.checkEOF(t)
}

func TestContractDeploySlowBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for more than the default timeout")
	}
	e := newExecutor(t)
	cfg := fmt.Sprintf(`ApplicationConfiguration:
  RPC:
    Endpoint: %q
  Waiter:
    PollInterval: 4s
    Timeout: 1m
  LogLevel: error
  RegistryPath: %q
`, e.Endpoint, e.Registry)
	require.NoError(t, os.WriteFile(e.Config, []byte(cfg), 0o644))
	e.Chain.MineAfter = 2

	code, abi := e.counterFiles(t)
	start := time.Now()
	addr, _ := e.deploy(t, code, abi, "counter")
	require.Greater(t, time.Since(start), options.DefaultTimeout)

	e.Run(t, "easycontract", "contract", "list", "--config-file", e.Config)
	e.checkNextLine(t, `^counter\s+`+addr.Hex()+`\s+1\s+\S+$`)
	e.checkEOF(t)
}

func TestContractDeployErrors(t *testing.T) {
	e := newExecutor(t)
	code, abi := e.counterFiles(t)
	tokenCode, tokenABI := e.tokenFiles(t)

	t.Run("no key", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no secret key", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "-i", code)
	})
	t.Run("bad bytecode", func(t *testing.T) {
		e.RunWithErrorCheck(t, "bad bytecode", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", writeFile(t, "bad.hex", []byte("not hex")))
	})
	t.Run("missing bytecode file", func(t *testing.T) {
		e.RunWithErrorCheck(t, "failed to read bytecode", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", code+".missing")
	})
	t.Run("bad ABI", func(t *testing.T) {
		e.RunWithErrorCheck(t, "malformed interface", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", code, "--abi", writeFile(t, "bad.json", []byte("{")))
	})
	t.Run("parameters without ABI", func(t *testing.T) {
		e.RunWithErrorCheck(t, "require contract ABI", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", tokenCode, "1000")
	})
	t.Run("missing constructor parameter", func(t *testing.T) {
		requests := e.Chain.TotalRequests()
		e.RunWithErrorCheck(t, "encoding error", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", tokenCode, "--abi", tokenABI)
		require.Equal(t, requests, e.Chain.TotalRequests())
	})
	t.Run("bad value", func(t *testing.T) {
		e.RunWithErrorCheck(t, "invalid value", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", code, "--value", "-1")
	})
	t.Run("address as a name", func(t *testing.T) {
		e.RunWithErrorCheck(t, "looks like an address", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", code, "--abi", abi, "--name", validatorAddr)
	})
	t.Run("duplicate name", func(t *testing.T) {
		e.deploy(t, code, abi, "counter")
		e.RunWithErrorCheck(t, "already registered", "easycontract", "contract", "deploy",
			"--config-file", e.Config, "--secret-key", validatorKey,
			"-i", code, "--abi", abi, "--name", "counter")
	})
}

func TestContractInvokeErrors(t *testing.T) {
	e := newExecutor(t)
	code, abi := e.counterFiles(t)
	addr, _ := e.deploy(t, code, abi, "")

	invoke := func(args ...string) []string {
		return append([]string{"easycontract", "contract", "invokefunction",
			"--config-file", e.Config, "--secret-key", validatorKey}, args...)
	}
	testInvoke := func(args ...string) []string {
		return append([]string{"easycontract", "contract", "testinvokefunction",
			"--config-file", e.Config}, args...)
	}

	t.Run("no contract", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no contract name or address", invoke()...)
	})
	t.Run("no method", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no method specified", testInvoke(addr.Hex())...)
	})
	t.Run("unknown name", func(t *testing.T) {
		e.RunWithErrorCheck(t, "contract not found", testInvoke("nope", "yeahs")...)
	})
	t.Run("unregistered address without ABI", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no contract ABI found", testInvoke(addr.Hex(), "yeahs")...)
	})
	t.Run("unknown method", func(t *testing.T) {
		e.RunWithErrorCheck(t, "unknown function", testInvoke("--abi", abi, addr.Hex(), "nope")...)
	})
	t.Run("bad parameters", func(t *testing.T) {
		e.RunWithErrorCheck(t, "missing closing bracket", invoke("--abi", abi, addr.Hex(), "add", "[", "1")...)
	})
	t.Run("arity mismatch", func(t *testing.T) {
		requests := e.Chain.TotalRequests()
		e.RunWithErrorCheck(t, "encoding error", testInvoke("--abi", abi, addr.Hex(), "add")...)
		require.Equal(t, requests, e.Chain.TotalRequests())
	})
	t.Run("bad historic", func(t *testing.T) {
		e.RunWithErrorCheck(t, "invalid 'historic'", testInvoke("--abi", abi, "--historic", "latest", addr.Hex(), "yeahs")...)
	})
	t.Run("no key", func(t *testing.T) {
		e.RunWithErrorCheck(t, "no secret key", "easycontract", "contract", "invokefunction",
			"--config-file", e.Config, "--abi", abi, addr.Hex(), "yeah")
	})
}

package app

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easycontract/easycontract/internal/fakechain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const (
	validatorKey  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	validatorAddr = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Chain is a fake node the CLI talks to.
	Chain *fakechain.Chain
	// Endpoint is the Chain JSON-RPC URL.
	Endpoint string
	// Config is the path to the client configuration file.
	Config string
	// Registry is the path to the contract registry.
	Registry string
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T) *executor {
	dir := t.TempDir()
	e := &executor{
		CLI:      New(),
		Chain:    fakechain.New(),
		Registry: filepath.Join(dir, "registry.db"),
		Config:   filepath.Join(dir, "easycontract.yml"),
		Out:      bytes.NewBuffer(nil),
		Err:      bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	e.Endpoint = fakechain.NewServer(t, e.Chain)

	cfg := fmt.Sprintf(`ApplicationConfiguration:
  RPC:
    Endpoint: %q
  Waiter:
    PollInterval: 10ms
    Timeout: 5s
  LogLevel: error
  RegistryPath: %q
`, e.Endpoint, e.Registry)
	require.NoError(t, os.WriteFile(e.Config, []byte(cfg), 0o644))
	return e
}

// writeFile stores data in a temporary file and returns its path.
func writeFile(t *testing.T, name string, data []byte) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func (e *executor) counterFiles(t *testing.T) (string, string) {
	return writeFile(t, "counter.hex", []byte(hex.EncodeToString(fakechain.CounterCode)+"\n")),
		writeFile(t, "counter.abi.json", []byte(fakechain.CounterABI))
}

func (e *executor) tokenFiles(t *testing.T) (string, string) {
	return writeFile(t, "token.hex", []byte("0x"+hex.EncodeToString(fakechain.TokenCode))),
		writeFile(t, "token.abi.json", []byte(fakechain.TokenABI))
}

// deploy deploys the given contract and returns its address and the
// deployment transaction hash.
func (e *executor) deploy(t *testing.T, code, abi, name string, params ...string) (common.Address, common.Hash) {
	args := []string{"easycontract", "contract", "deploy",
		"--config-file", e.Config,
		"--secret-key", validatorKey,
		"-i", code,
		"--abi", abi,
	}
	if name != "" {
		args = append(args, "--name", name)
	}
	e.Run(t, append(args, params...)...)
	line := e.getNextLine(t)
	require.True(t, strings.HasPrefix(line, "Contract: "), line)
	addr := common.HexToAddress(strings.TrimPrefix(line, "Contract: "))
	line = e.getNextLine(t)
	e.checkLine(t, line, `^Transaction: 0x[0-9a-f]{64}$`)
	h := common.HexToHash(strings.TrimPrefix(line, "Transaction: "))
	e.checkNextLine(t, `^Block: \d+$`)
	e.checkEOF(t)
	require.True(t, e.Chain.IsDeployed(addr))
	return addr, h
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, 1)
}

// RunWithErrorCheck runs command and checks that there were errors and
// the error message contains the given string.
func (e *executor) RunWithErrorCheck(t *testing.T, msg string, args ...string) {
	ch := setExitFunc()
	err := e.run(args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), msg)
	checkExit(t, ch, 1)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	return e.CLI.Run(args)
}

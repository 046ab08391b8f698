package smartcontract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/easycontract/easycontract/cli/cmdargs"
	"github.com/easycontract/easycontract/cli/flags"
	"github.com/easycontract/easycontract/cli/options"
	"github.com/easycontract/easycontract/pkg/registry"
	"github.com/easycontract/easycontract/pkg/rpcclient"
	"github.com/easycontract/easycontract/pkg/rpcclient/contract"
	"github.com/easycontract/easycontract/pkg/smartcontract"
	"github.com/easycontract/easycontract/pkg/smartcontract/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	errNoInput        = errors.New("no input file was found, specify an input file with the '--in or -i' flag")
	errNoABI          = errors.New("no contract ABI found, specify it with the '--abi' flag or deploy the contract with '--name'")
	errNoContract     = errors.New("no contract name or address specified")
	errNoMethod       = errors.New("no method specified for function invocation command")
	errArgsWithoutABI = errors.New("constructor parameters require contract ABI, specify it with the '--abi' flag")
)

var (
	abiFlag = &cli.StringFlag{
		Name:  "abi",
		Usage: "path to the contract ABI JSON file",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "amount of wei to send along with the transaction",
	}
)

// NewCommands returns 'contract' command.
func NewCommands() []*cli.Command {
	deployFlags := append([]cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Aliases:  []string{"i"},
			Required: true,
			Usage:    "path to the file with hex-encoded contract creation bytecode",
		},
		abiFlag,
		valueFlag,
		&cli.StringFlag{
			Name:  "name",
			Usage: "record the deployed contract in the registry under the given name",
		},
		options.Registry,
		options.SecretKey,
	}, options.Common...)
	invokeFlags := append([]cli.Flag{
		abiFlag,
		valueFlag,
		options.Await,
		options.Registry,
		options.SecretKey,
	}, options.Common...)
	testInvokeFlags := append([]cli.Flag{
		abiFlag,
		flags.AddressFlag{
			Name:  "from",
			Usage: "address to perform the call from",
		},
		options.Historic,
		options.Registry,
	}, options.Common...)
	return []*cli.Command{{
		Name:  "contract",
		Usage: "Deploy and invoke smart contracts",
		Subcommands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy a smart contract",
				UsageText: "easycontract contract deploy -r endpoint --secret-key key -i bytecode.hex [--abi file.json] [--name name] [--value wei] [param ...]\n\n" +
					"   Constructor parameters use the same syntax as invokefunction ones.",
				Action: contractDeploy,
				Flags:  deployFlags,
			},
			{
				Name:      "invokefunction",
				Usage:     "Invoke a contract method with a transaction",
				UsageText: "easycontract contract invokefunction -r endpoint --secret-key key [--abi file.json] [--value wei] [--await] <contract> <method> [param ...]",
				Description: `Creates, signs and sends a transaction invoking the given method of the
   contract. The contract is specified by its address or by the name it was
   deployed with. Without --await only the transaction hash is printed, with
   it the command waits for the transaction to be mined and fails if its
   execution wasn't successful.

` + cmdargs.ParamsParsingDoc,
				Action: invokeFunction,
				Flags:  invokeFlags,
			},
			{
				Name:      "testinvokefunction",
				Usage:     "Invoke a contract method without a transaction and print the results",
				UsageText: "easycontract contract testinvokefunction -r endpoint [--abi file.json] [--from address] [--historic height] <contract> <method> [param ...]",
				Description: `Performs a read-only call of the given method and prints decoded results
   as JSON. Nothing is sent to the network.

` + cmdargs.ParamsParsingDoc,
				Action: testInvokeFunction,
				Flags:  testInvokeFlags,
			},
			{
				Name:      "list",
				Usage:     "List contracts recorded in the registry",
				UsageText: "easycontract contract list [--registry path]",
				Action:    listContracts,
				Flags:     []cli.Flag{options.ConfigFile, options.Registry},
			},
		},
	}}
}

func contractDeploy(ctx *cli.Context) error {
	code, err := readBytecode(ctx.String("in"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	params, exitErr := cmdargs.GetParamsFromContext(ctx, 0)
	if exitErr != nil {
		return exitErr
	}
	value, err := parseValue(ctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	var (
		a       *abi.ABI
		abiJSON []byte
	)
	if abiPath := ctx.String("abi"); abiPath != "" {
		abiJSON, a, err = readABI(abiPath)
		if err != nil {
			return cli.Exit(err, 1)
		}
	} else if len(params) != 0 {
		return cli.Exit(errArgsWithoutABI, 1)
	}

	log, exitErr := options.GetLogger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()

	var reg *registry.Registry
	name := ctx.String("name")
	if name != "" {
		if err := registry.ValidateName(name); err != nil {
			return cli.Exit(err, 1)
		}
		reg, exitErr = options.GetRegistry(ctx)
		if exitErr != nil {
			return exitErr
		}
		defer reg.Close()
		if _, err := reg.Get(name); err == nil {
			return cli.Exit(fmt.Errorf("contract %q is already registered", name), 1)
		}
	}

	stop, exitErr := options.StartServices(ctx, log)
	if exitErr != nil {
		return exitErr
	}
	defer stop()

	// Deployment is always awaited.
	gctx, cancel := options.GetAwaitableTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	var (
		addr common.Address
		r    *types.Receipt
	)
	if a != nil {
		addr, r, err = contract.DeployWithArgs(gctx, act, code, a, value, params...)
	} else {
		addr, r, err = contract.Deploy(gctx, act, code, value)
	}
	if err != nil {
		return cli.Exit(fmt.Errorf("deployment failed: %w", err), 1)
	}
	log.Info("contract deployed",
		zap.Stringer("address", addr),
		zap.Stringer("tx", r.TxHash),
		zap.Stringer("block", r.BlockNumber))

	if reg != nil {
		err = reg.Put(registry.Record{
			Name:        name,
			Address:     addr,
			TxHash:      r.TxHash,
			BlockNumber: r.BlockNumber.Uint64(),
			DeployedAt:  time.Now().UTC(),
			ABI:         abiJSON,
		})
		if err != nil {
			return cli.Exit(fmt.Errorf("contract %s deployed, but can't be registered: %w", addr, err), 1)
		}
	}

	fmt.Fprintf(ctx.App.Writer, "Contract: %s\n", addr.Hex())
	fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", r.TxHash.Hex())
	fmt.Fprintf(ctx.App.Writer, "Block: %s\n", r.BlockNumber)
	return nil
}

func invokeFunction(ctx *cli.Context) error {
	target, method, params, exitErr := parseInvocation(ctx)
	if exitErr != nil {
		return exitErr
	}
	value, err := parseValue(ctx)
	if err != nil {
		return cli.Exit(err, 1)
	}

	log, exitErr := options.GetLogger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()

	stop, exitErr := options.StartServices(ctx, log)
	if exitErr != nil {
		return exitErr
	}
	defer stop()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, act, exitErr := options.GetRPCWithActor(gctx, ctx, log)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	ct, exitErr := getContract(ctx, c, target)
	if exitErr != nil {
		return exitErr
	}

	if !ctx.Bool("await") {
		h, err := ct.SendInvoke(gctx, act, value, method, params...)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to send transaction: %w", err), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "Sent invocation transaction %s\n", h.Hex())
		return nil
	}
	r, err := ct.Invoke(gctx, act, value, method, params...)
	if err != nil {
		return cli.Exit(fmt.Errorf("invocation failed: %w", err), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", r.TxHash.Hex())
	fmt.Fprintf(ctx.App.Writer, "Block: %s\n", r.BlockNumber)
	fmt.Fprintf(ctx.App.Writer, "GasUsed: %d\n", r.GasUsed)
	return nil
}

func testInvokeFunction(ctx *cli.Context) error {
	target, method, params, exitErr := parseInvocation(ctx)
	if exitErr != nil {
		return exitErr
	}

	var from *common.Address
	if addr, ok := flags.GetAddress(ctx, "from"); ok {
		from = &addr
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, from)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	ct, exitErr := getContract(ctx, c, target)
	if exitErr != nil {
		return exitErr
	}
	vals, err := ct.QueryWith(gctx, inv, method, params...)
	if err != nil {
		return cli.Exit(err, 1)
	}
	res, err := smartcontract.NewParametersFromValues(vals...)
	if err != nil {
		return cli.Exit(err, 1)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

func listContracts(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	reg, exitErr := options.GetRegistry(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer reg.Close()

	recs, err := reg.List()
	if err != nil {
		return cli.Exit(err, 1)
	}
	buf := bytes.NewBuffer(nil)
	tw := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)
	for _, r := range recs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Name, r.Address.Hex(), r.BlockNumber, r.DeployedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
	return nil
}

// getContract returns a handle of the contract given by its address or
// registered name, ABI is taken from --abi or from the registry.
func getContract(ctx *cli.Context, c *rpcclient.Client, target string) (*contract.Contract, cli.ExitCoder) {
	abiPath := ctx.String("abi")
	if common.IsHexAddress(target) && abiPath != "" {
		_, a, err := readABI(abiPath)
		if err != nil {
			return nil, cli.Exit(err, 1)
		}
		return contract.New(c, common.HexToAddress(target), a), nil
	}

	reg, exitErr := options.GetRegistry(ctx)
	if exitErr != nil {
		return nil, exitErr
	}
	defer reg.Close()
	var (
		rec registry.Record
		err error
	)
	if common.IsHexAddress(target) {
		rec, err = reg.FindByAddress(common.HexToAddress(target))
	} else {
		rec, err = reg.Get(target)
	}
	if err != nil {
		if common.IsHexAddress(target) && errors.Is(err, registry.ErrNotFound) {
			return nil, cli.Exit(errNoABI, 1)
		}
		return nil, cli.Exit(err, 1)
	}
	if abiPath != "" {
		_, a, err := readABI(abiPath)
		if err != nil {
			return nil, cli.Exit(err, 1)
		}
		return contract.New(c, rec.Address, a), nil
	}
	if len(rec.ABI) == 0 {
		return nil, cli.Exit(errNoABI, 1)
	}
	ct, err := contract.NewFromJSON(c, rec.Address, rec.ABI)
	if err != nil {
		return nil, cli.Exit(err, 1)
	}
	return ct, nil
}

func parseInvocation(ctx *cli.Context) (string, string, []any, cli.ExitCoder) {
	args := ctx.Args()
	if args.Len() == 0 {
		return "", "", nil, cli.Exit(errNoContract, 1)
	}
	if args.Len() == 1 {
		return "", "", nil, cli.Exit(errNoMethod, 1)
	}
	params, exitErr := cmdargs.GetParamsFromContext(ctx, 2)
	if exitErr != nil {
		return "", "", nil, exitErr
	}
	return args.Get(0), args.Get(1), params, nil
}

func parseValue(ctx *cli.Context) (*uint256.Int, error) {
	s := ctx.String("value")
	if s == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

func readBytecode(path string) ([]byte, error) {
	if path == "" {
		return nil, errNoInput
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("bad bytecode file: %w", err)
	}
	return code, nil
}

func readABI(path string) ([]byte, *abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ABI: %w", err)
	}
	a, err := abi.Load(data)
	if err != nil {
		return nil, nil, err
	}
	return data, a, nil
}

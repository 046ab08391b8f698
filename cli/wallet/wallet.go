package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/easycontract/easycontract/cli/cmdargs"
	"github.com/easycontract/easycontract/cli/flags"
	"github.com/easycontract/easycontract/cli/options"
	"github.com/easycontract/easycontract/pkg/rpcclient/economy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	errNoToken     = errors.New("no token specified, use '--token' flag")
	errNoRecipient = errors.New("no recipient specified, use '--to' flag")
	errNoAddress   = errors.New("no address specified, use '--address' flag or provide the secret key")
)

var tokenFlag = &cli.StringFlag{
	Name:  "token",
	Usage: "token contract address or its registered name",
}

// NewCommands returns 'wallet' command.
func NewCommands() []*cli.Command {
	balanceFlags := append([]cli.Flag{
		tokenFlag,
		flags.AddressFlag{
			Name:    "address",
			Aliases: []string{"a"},
			Usage:   "address to get the balance of (the key owner by default)",
		},
		options.SecretKey,
		options.Historic,
		options.Registry,
	}, options.Common...)
	transferFlags := append([]cli.Flag{
		tokenFlag,
		flags.AddressFlag{
			Name:  "to",
			Usage: "address to send tokens to",
		},
		&cli.StringFlag{
			Name:  "amount",
			Usage: "amount of tokens to send",
		},
		options.Await,
		options.SecretKey,
		options.Registry,
	}, options.Common...)
	return []*cli.Command{{
		Name:  "wallet",
		Usage: "Work with the signing key and demo tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "address",
				Usage:     "Print the address of the signing key",
				UsageText: "easycontract wallet address --secret-key key",
				Action:    printAddress,
				Flags:     []cli.Flag{options.SecretKey},
			},
			{
				Name:  "token",
				Usage: "Work with Economy tokens",
				Subcommands: []*cli.Command{
					{
						Name:      "info",
						Usage:     "Print token name, symbol, decimals and total supply",
						UsageText: "easycontract wallet token info -r endpoint --token <address-or-name>",
						Action:    tokenInfo,
						Flags:     append([]cli.Flag{tokenFlag, options.Historic, options.Registry}, options.Common...),
					},
					{
						Name:      "balance",
						Usage:     "Get token balance",
						UsageText: "easycontract wallet token balance -r endpoint --token <address-or-name> [--address <address>] [--secret-key key]",
						Action:    tokenBalance,
						Flags:     balanceFlags,
					},
					{
						Name:      "transfer",
						Usage:     "Transfer tokens",
						UsageText: "easycontract wallet token transfer -r endpoint --secret-key key --token <address-or-name> --to <address> --amount <amount> [--await]",
						Action:    tokenTransfer,
						Flags:     transferFlags,
					},
				},
			},
		},
	}}
}

func printAddress(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	acc, exitErr := options.GetAccount(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer acc.Close()
	fmt.Fprintln(ctx.App.Writer, acc.Address().Hex())
	return nil
}

func getTokenAddress(ctx *cli.Context) (common.Address, cli.ExitCoder) {
	token := ctx.String("token")
	if token == "" {
		return common.Address{}, cli.Exit(errNoToken, 1)
	}
	if common.IsHexAddress(token) {
		return common.HexToAddress(token), nil
	}
	reg, exitErr := options.GetRegistry(ctx)
	if exitErr != nil {
		return common.Address{}, exitErr
	}
	defer reg.Close()
	addr, err := reg.Resolve(token)
	if err != nil {
		return common.Address{}, cli.Exit(err, 1)
	}
	return addr, nil
}

func tokenInfo(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	tokenAddr, exitErr := getTokenAddress(ctx)
	if exitErr != nil {
		return exitErr
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, nil)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	tok := economy.NewReader(inv, tokenAddr)
	name, err := tok.Name(gctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	symbol, err := tok.Symbol(gctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	decimals, err := tok.Decimals(gctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	supply, err := tok.TotalSupply(gctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Name:\t%s\n", name)
	fmt.Fprintf(ctx.App.Writer, "Symbol:\t%s\n", symbol)
	fmt.Fprintf(ctx.App.Writer, "Decimals:\t%d\n", decimals)
	fmt.Fprintf(ctx.App.Writer, "Address:\t%s\n", tokenAddr.Hex())
	fmt.Fprintf(ctx.App.Writer, "TotalSupply:\t%s\n", supply)
	return nil
}

func tokenBalance(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	tokenAddr, exitErr := getTokenAddress(ctx)
	if exitErr != nil {
		return exitErr
	}

	owner, ok := flags.GetAddress(ctx, "address")
	if !ok {
		if !options.HasSecretKey(ctx) {
			return cli.Exit(errNoAddress, 1)
		}
		acc, exitErr := options.GetAccount(ctx)
		if exitErr != nil {
			return exitErr
		}
		owner = acc.Address()
		acc.Close()
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, inv, exitErr := options.GetRPCWithInvoker(gctx, ctx, nil)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	bal, err := economy.NewReader(inv, tokenAddr).Balance(gctx, owner)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Account: %s\n", owner.Hex())
	fmt.Fprintf(ctx.App.Writer, "Balance: %s\n", bal)
	return nil
}

func tokenTransfer(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	tokenAddr, exitErr := getTokenAddress(ctx)
	if exitErr != nil {
		return exitErr
	}
	to, ok := flags.GetAddress(ctx, "to")
	if !ok {
		return cli.Exit(errNoRecipient, 1)
	}
	amount, ok := new(big.Int).SetString(ctx.String("amount"), 10)
	if !ok || amount.Sign() < 0 {
		return cli.Exit(fmt.Errorf("invalid amount %q", ctx.String("amount")), 1)
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

	tok := economy.New(act, tokenAddr)
	if !ctx.Bool("await") {
		h, err := tok.SendTransfer(gctx, to, amount)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to send transfer: %w", err), 1)
		}
		fmt.Fprintf(ctx.App.Writer, "Sent transfer transaction %s\n", h.Hex())
		return nil
	}
	r, err := tok.Transfer(gctx, to, amount)
	if err != nil {
		return cli.Exit(fmt.Errorf("transfer failed: %w", err), 1)
	}
	log.Info("tokens transferred",
		zap.Stringer("token", tokenAddr),
		zap.Stringer("to", to),
		zap.Stringer("amount", amount))
	fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", r.TxHash.Hex())
	fmt.Fprintf(ctx.App.Writer, "Block: %s\n", r.BlockNumber)
	return nil
}

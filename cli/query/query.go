package query

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/easycontract/easycontract/cli/cmdargs"
	"github.com/easycontract/easycontract/cli/options"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/urfave/cli/v2"
)

// NewCommands returns 'query' command.
func NewCommands() []*cli.Command {
	queryFlags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Output full block or transaction info",
		},
	}, options.Common...)
	return []*cli.Command{{
		Name:  "query",
		Usage: "Query data from the node",
		Subcommands: []*cli.Command{
			{
				Name:      "block",
				Usage:     "Query block by number or hash (the latest one if not specified)",
				UsageText: "easycontract query block -r endpoint [-s timeout] [-v] [<number>|<hash>]",
				Action:    queryBlock,
				Flags:     queryFlags,
			},
			{
				Name:      "tx",
				Usage:     "Query transaction status",
				UsageText: "easycontract query tx -r endpoint [-s timeout] [-v] <hash>",
				Action:    queryTx,
				Flags:     queryFlags,
			},
			{
				Name:      "height",
				Usage:     "Get the latest block number",
				UsageText: "easycontract query height -r endpoint [-s timeout]",
				Action:    queryHeight,
				Flags:     options.Common,
			},
		},
	}}
}

func queryHeight(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	h, err := c.GetBlockNumber(gctx)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Latest block: %d\n", h)
	return nil
}

func queryBlock(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return cli.Exit("only one block can be queried", 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	var (
		b   *types.Block
		err error
		arg = ctx.Args().First()
	)
	switch {
	case arg == "" || arg == "latest":
		b, err = c.GetBlockByNumber(gctx, nil)
	case len(strings.TrimPrefix(arg, "0x")) == 2*common.HashLength:
		var h common.Hash
		h, err = parseHash(arg)
		if err != nil {
			return cli.Exit(err, 1)
		}
		b, err = c.GetBlockByHash(gctx, h)
	default:
		var n uint64
		n, err = strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Invalid block number or hash: %s", arg), 1)
		}
		b, err = c.GetBlockByNumber(gctx, new(big.Int).SetUint64(n))
	}
	if err != nil {
		return cli.Exit(err, 1)
	}
	dumpBlock(ctx, b)
	return nil
}

func queryTx(ctx *cli.Context) error {
	args := ctx.Args()
	if args.Len() == 0 {
		return cli.Exit("Transaction hash is missing", 1)
	}
	if args.Len() > 1 {
		return cli.Exit("only one transaction can be queried", 1)
	}

	txHash, err := parseHash(args.First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid tx hash: %s", args.First()), 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, ctx)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	tx, pending, err := c.GetTransactionByHash(gctx, txHash)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var r *types.Receipt
	if !pending {
		r, err = c.GetTransactionReceipt(gctx, txHash)
		if err != nil {
			return cli.Exit(err, 1)
		}
	}

	dumpTransaction(ctx, tx, r)
	return nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		if !strings.HasPrefix(s, "0x") {
			return parseHash("0x" + s)
		}
		return common.Hash{}, fmt.Errorf("invalid hash %q", s)
	}
	return common.BytesToHash(b), nil
}

func dumpBlock(ctx *cli.Context, b *types.Block) {
	verbose := ctx.Bool("verbose")
	buf := bytes.NewBuffer(nil)

	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Number:\t" + b.Number().String() + "\n"))
	_, _ = tw.Write([]byte("Hash:\t" + b.Hash().Hex() + "\n"))
	_, _ = tw.Write([]byte("ParentHash:\t" + b.ParentHash().Hex() + "\n"))
	_, _ = tw.Write([]byte("Time:\t" + time.Unix(int64(b.Time()), 0).UTC().Format(time.RFC3339) + "\n"))
	_, _ = tw.Write([]byte(fmt.Sprintf("GasUsed:\t%d\n", b.GasUsed())))
	_, _ = tw.Write([]byte(fmt.Sprintf("Transactions:\t%d\n", len(b.Transactions()))))
	if verbose {
		_, _ = tw.Write([]byte(fmt.Sprintf("GasLimit:\t%d\n", b.GasLimit())))
		_, _ = tw.Write([]byte("Miner:\t" + b.Coinbase().Hex() + "\n"))
		for _, tx := range b.Transactions() {
			_, _ = tw.Write([]byte("Tx:\t" + tx.Hash().Hex() + "\n"))
		}
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
}

func dumpTransaction(ctx *cli.Context, tx *types.Transaction, r *types.Receipt) {
	verbose := ctx.Bool("verbose")
	buf := bytes.NewBuffer(nil)

	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Hash:\t" + tx.Hash().Hex() + "\n"))
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		_, _ = tw.Write([]byte("From:\t" + from.Hex() + "\n"))
	}
	if to := tx.To(); to != nil {
		_, _ = tw.Write([]byte("To:\t" + to.Hex() + "\n"))
	} else {
		_, _ = tw.Write([]byte("To:\tcontract creation\n"))
	}
	_, _ = tw.Write([]byte(fmt.Sprintf("OnChain:\t%t\n", r != nil)))
	if r != nil {
		_, _ = tw.Write([]byte("BlockNumber:\t" + r.BlockNumber.String() + "\n"))
		_, _ = tw.Write([]byte(fmt.Sprintf("Success:\t%t\n", r.Status == types.ReceiptStatusSuccessful)))
		if r.ContractAddress != (common.Address{}) {
			_, _ = tw.Write([]byte("Contract:\t" + r.ContractAddress.Hex() + "\n"))
		}
	}
	if verbose {
		_, _ = tw.Write([]byte(fmt.Sprintf("Nonce:\t%d\n", tx.Nonce())))
		_, _ = tw.Write([]byte("Value:\t" + tx.Value().String() + "\n"))
		_, _ = tw.Write([]byte(fmt.Sprintf("Gas:\t%d\n", tx.Gas())))
		_, _ = tw.Write([]byte("GasPrice:\t" + tx.GasPrice().String() + "\n"))
		_, _ = tw.Write([]byte("Data:\t" + hexutil.Encode(tx.Data()) + "\n"))
		if r != nil {
			_, _ = tw.Write([]byte(fmt.Sprintf("GasUsed:\t%d\n", r.GasUsed)))
			_, _ = tw.Write([]byte(fmt.Sprintf("Logs:\t%d\n", len(r.Logs))))
		}
	}
	_ = tw.Flush()
	fmt.Fprint(ctx.App.Writer, buf.String())
}

package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/easycontract/easycontract/cli/query"
	"github.com/easycontract/easycontract/cli/smartcontract"
	"github.com/easycontract/easycontract/cli/wallet"
	"github.com/easycontract/easycontract/pkg/config"
	"github.com/urfave/cli/v2"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "EasyContract\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an EasyContract instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "easycontract"
	ctl.Version = config.Version
	ctl.Usage = "Deploy, query and invoke Ethereum smart contracts"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, smartcontract.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	return ctl
}

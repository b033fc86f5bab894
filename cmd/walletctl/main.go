// Command walletctl is an operator maintenance tool for walletd's on-disk
// stores: it operates directly on the LevelDB directories walletd manages,
// not against a running server, so it must be run while walletd is
// stopped.
package main

import (
	"fmt"
	"os"

	"github.com/defisafe/walletd/internal/flags"
	"github.com/urfave/cli/v2"
)

var dbFlag = &cli.StringFlag{
	Name:     "db",
	Usage:    "base data directory (same value as walletd's DATABASE_URL)",
	Value:    "local.db",
	Category: flags.StorageCategory,
}

func main() {
	app := &cli.App{
		Name:  "walletctl",
		Usage: "operator maintenance tool for a walletd data directory",
		Commands: []*cli.Command{
			commandWalletsList,
			commandWalletsInspect,
			commandWalletsKEKRotate,
			commandAccountsDisable,
			commandAccountsEnable,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

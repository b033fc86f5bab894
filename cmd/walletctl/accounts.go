package main

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/defisafe/walletd/internal/authstore"
)

var userIDFlag = &cli.StringFlag{
	Name:     "user-id",
	Usage:    "user uuid, as returned by /api/auth/register",
	Required: true,
}

// setDisabled backs both commandAccountsDisable and commandAccountsEnable.
// The login flow only checks the Disabled flag, it never flips it, so
// this is the only place it's set outside tests.
func setDisabled(dbDir, rawID string, disabled bool) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("walletctl: invalid --user-id: %w", err)
	}

	store, err := authstore.Open(filepath.Join(dbDir, "auth"), 12)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SetDisabled(id, disabled)
}

var commandAccountsDisable = &cli.Command{
	Name:      "accounts-disable",
	Usage:     "disable a user account, rejecting future logins with ACCOUNT_DISABLED",
	ArgsUsage: " ",
	Flags:     []cli.Flag{dbFlag, userIDFlag},
	Action: func(ctx *cli.Context) error {
		if err := setDisabled(ctx.String("db"), ctx.String("user-id"), true); err != nil {
			return err
		}
		fmt.Println("account disabled")
		return nil
	},
}

var commandAccountsEnable = &cli.Command{
	Name:      "accounts-enable",
	Usage:     "re-enable a previously disabled user account",
	ArgsUsage: " ",
	Flags:     []cli.Flag{dbFlag, userIDFlag},
	Action: func(ctx *cli.Context) error {
		if err := setDisabled(ctx.String("db"), ctx.String("user-id"), false); err != nil {
			return err
		}
		fmt.Println("account enabled")
		return nil
	},
}

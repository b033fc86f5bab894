package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/noncecoord"
	"github.com/defisafe/walletd/internal/signing"
	"github.com/defisafe/walletd/internal/walletstore"
)

var commandWalletsList = &cli.Command{
	Name:      "wallets-list",
	Usage:     "list every wallet name, network set and derivation epoch",
	ArgsUsage: " ",
	Flags:     []cli.Flag{dbFlag},
	Action: func(ctx *cli.Context) error {
		store, err := walletstore.Open(filepath.Join(ctx.String("db"), "wallets"))
		if err != nil {
			return err
		}
		defer store.Close()

		wallets, err := store.List()
		if err != nil {
			return err
		}
		for _, w := range wallets {
			fmt.Printf("%-24s epoch=%-4d quantum_safe=%-5t networks=%v\n", w.Name, w.DerivationEpoch, w.QuantumSafe, w.Networks)
		}
		return nil
	},
}

var nameFlag = &cli.StringFlag{
	Name:     "name",
	Usage:    "wallet name",
	Required: true,
}

var commandWalletsInspect = &cli.Command{
	Name:      "wallets-inspect",
	Usage:     "print a single wallet's non-secret metadata",
	ArgsUsage: " ",
	Flags:     []cli.Flag{dbFlag, nameFlag},
	Action: func(ctx *cli.Context) error {
		store, err := walletstore.Open(filepath.Join(ctx.String("db"), "wallets"))
		if err != nil {
			return err
		}
		defer store.Close()

		record, err := store.GetByName(ctx.String("name"))
		if err != nil {
			return err
		}
		fmt.Printf("id:               %s\n", record.Info.ID)
		fmt.Printf("name:             %s\n", record.Info.Name)
		fmt.Printf("networks:         %v\n", record.Info.Networks)
		fmt.Printf("derivation epoch: %d\n", record.Info.DerivationEpoch)
		fmt.Printf("failed logins:    %d\n", record.Info.FailedLoginCount)
		fmt.Printf("kek id:           %s\n", record.KEKID)
		return nil
	},
}

// commandWalletsKEKRotate builds just enough of a Pipeline to exercise
// RotateWalletKEK — nonces and clients are never touched by that call, so
// an empty coordinator and client registry are sufficient here.
var commandWalletsKEKRotate = &cli.Command{
	Name:      "wallets-kek-rotate",
	Usage:     "re-encrypt a wallet's private-key material under the current KEK",
	ArgsUsage: " ",
	Flags:     []cli.Flag{dbFlag, nameFlag},
	Action: func(ctx *cli.Context) error {
		store, err := walletstore.Open(filepath.Join(ctx.String("db"), "wallets"))
		if err != nil {
			return err
		}
		defer store.Close()

		kekProvider, err := kek.NewEnvProviderFromEnv("env-1", false)
		if err != nil {
			return err
		}

		nonces := noncecoord.New(noncecoord.MultiChainSource{})
		pipeline := signing.New(store, kekProvider, nonces, map[string]chainclient.ChainClient{}, 1<<16)

		name := ctx.String("name")
		if err := pipeline.RotateWalletKEK(name); err != nil {
			return err
		}
		fmt.Printf("rotated KEK for wallet %q\n", name)
		return nil
	},
}

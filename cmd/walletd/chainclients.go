//go:build !testmock

package main

import (
	"errors"

	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/config"
)

// buildChainClients wires live RPC clients only. chainclient.MockClient is
// gated behind the testmock build tag so it can never link into a
// production binary; WALLETD_MOCK_CHAIN=1 against this binary is refused
// rather than silently ignored.
func buildChainClients(cfg config.Config) (map[string]chainclient.ChainClient, error) {
	if cfg.MockChain {
		return nil, errors.New("WALLETD_MOCK_CHAIN=1 requires a binary built with -tags testmock")
	}
	return liveChainClients(cfg), nil
}

//go:build testmock

package main

import (
	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/config"
)

// buildChainClients wires chainclient.MockClient for every network when
// WALLETD_MOCK_CHAIN=1, falling back to live RPC clients otherwise. Only
// reachable from a binary built with -tags testmock.
func buildChainClients(cfg config.Config) (map[string]chainclient.ChainClient, error) {
	if !cfg.MockChain {
		return liveChainClients(cfg), nil
	}
	clients := make(map[string]chainclient.ChainClient, len(allNetworks))
	for _, network := range allNetworks {
		clients[network.Name] = chainclient.NewMockClient(network)
	}
	return clients, nil
}

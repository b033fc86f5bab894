package main

import (
	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/config"
	"github.com/defisafe/walletd/internal/derivation"
)

// evmChainIDs are well-known mainnet chain IDs for the EVM networks
// internal/derivation/network.go registers. They are not operator-configurable: a chain ID
// identifies the network, it isn't a deployment tunable.
var evmChainIDs = map[string]uint64{
	derivation.Ethereum.Name: 1,
	derivation.Polygon.Name:  137,
	derivation.BSC.Name:      56,
}

var allNetworks = []derivation.Network{
	derivation.Ethereum,
	derivation.Polygon,
	derivation.BSC,
	derivation.BitcoinLegacy,
	derivation.BitcoinSegwit,
	derivation.BitcoinTaproot,
}

// liveChainClients builds one real ChainClient per network with an RPC URL
// configured. A network with no *_RPC_URL set is left out of the registry
// entirely; wallets created for it will fail at send/balance time with
// UNSUPPORTED_NETWORK rather than at startup, since an operator may only
// care about a subset of chains.
func liveChainClients(cfg config.Config) map[string]chainclient.ChainClient {
	clients := make(map[string]chainclient.ChainClient, len(allNetworks))
	for _, network := range allNetworks {
		url, ok := cfg.RPCURLs[network.Name]
		if !ok {
			continue
		}
		switch network.Family {
		case derivation.FamilyEVM:
			clients[network.Name] = chainclient.NewEVMClient(network, url, evmChainIDs[network.Name])
		case derivation.FamilyBitcoinLegacy, derivation.FamilyBitcoinSegwit, derivation.FamilyBitcoinTaproot:
			clients[network.Name] = chainclient.NewBitcoinClient(network, url)
		}
	}
	return clients
}

// Package derivation implements BIP39 mnemonic generation, BIP32
// hierarchical key derivation, and per-chain address encoding.
package derivation

import (
	"fmt"

	"github.com/defisafe/walletd/params"
)

// ChainFamily selects the address/derivation scheme a Network uses.
type ChainFamily string

const (
	FamilyEVM            ChainFamily = "evm"
	FamilyBitcoinLegacy   ChainFamily = "bitcoin-legacy"
	FamilyBitcoinSegwit   ChainFamily = "bitcoin-segwit"
	FamilyBitcoinTaproot  ChainFamily = "bitcoin-taproot"
)

// Network describes one supported chain's derivation and address
// parameters.
type Network struct {
	Name          string
	Family        ChainFamily
	BIP44CoinType uint32
	Decimals      int
}

func (n Network) purpose() uint32 {
	switch n.Family {
	case FamilyBitcoinSegwit:
		return 84
	case FamilyBitcoinTaproot:
		return 86
	default:
		return 44
	}
}

// Path returns this network's default BIP44-family account-0/external-0
// derivation path, e.g. "m/44'/60'/0'/0/0" for Ethereum.
func (n Network) Path() string {
	return fmt.Sprintf("m/%d'/%d'/0'/0/0", n.purpose(), n.BIP44CoinType)
}

var (
	Ethereum       = Network{Name: "ethereum", Family: FamilyEVM, BIP44CoinType: 60, Decimals: params.EVMDecimals}
	Polygon        = Network{Name: "polygon", Family: FamilyEVM, BIP44CoinType: 60, Decimals: params.EVMDecimals}
	BSC            = Network{Name: "bsc", Family: FamilyEVM, BIP44CoinType: 60, Decimals: params.EVMDecimals}
	BitcoinLegacy  = Network{Name: "bitcoin-legacy", Family: FamilyBitcoinLegacy, BIP44CoinType: 0, Decimals: params.BitcoinDecimals}
	BitcoinSegwit  = Network{Name: "bitcoin-segwit", Family: FamilyBitcoinSegwit, BIP44CoinType: 0, Decimals: params.BitcoinDecimals}
	BitcoinTaproot = Network{Name: "bitcoin-taproot", Family: FamilyBitcoinTaproot, BIP44CoinType: 0, Decimals: params.BitcoinDecimals}
)

var registry = map[string]Network{
	Ethereum.Name:       Ethereum,
	Polygon.Name:        Polygon,
	BSC.Name:            BSC,
	BitcoinLegacy.Name:  BitcoinLegacy,
	BitcoinSegwit.Name:  BitcoinSegwit,
	BitcoinTaproot.Name: BitcoinTaproot,
}

// ErrUnknownNetwork names a lookup miss in LookupNetwork.
type ErrUnknownNetwork string

func (e ErrUnknownNetwork) Error() string {
	return fmt.Sprintf("derivation: unknown network %q", string(e))
}

// LookupNetwork resolves a network name to its registry entry.
func LookupNetwork(name string) (Network, error) {
	n, ok := registry[name]
	if !ok {
		return Network{}, ErrUnknownNetwork(name)
	}
	return n, nil
}

// SupportedNetworks lists every registered network name, used by wallet
// creation validation and the HTTP frontend's capability listing.
func SupportedNetworks() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

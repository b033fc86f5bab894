// Package params holds chain-wide constants shared across the signing core.
package params

// Multipliers for EVM denominations.
// Example: to get the wei value of an amount in 'gwei', use
//
//	new(big.Int).Mul(value, big.NewInt(params.GWei))
const (
	Wei  = 1
	GWei = 1e9
	Ether = 1e18
)

// EVMDecimals and BitcoinDecimals are the precision limits enforced by
// amount validation.
const (
	EVMDecimals     = 18
	BitcoinDecimals = 8
)

// MinGasPriceWei is the floor for EIP-1559 max_priority_fee: the fee is
// max(base/10, MinGasPriceWei).
const MinGasPriceWei = GWei

// PlainTransferGasLimit is the gas limit used for a plain native-asset
// transfer.
const PlainTransferGasLimit = 21000


package chainclient

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/walleterr"
)

// BitcoinClient is the optional non-EVM chain family. It implements
// balance/nonce/address-validation enough to exercise the derivation
// engine's non-EVM paths; Submit intentionally fails, since UTXO selection
// and PSBT construction are out of scope (see the Non-goals section of
// SPEC_FULL.md).
type BitcoinClient struct {
	network derivation.Network
	rpc     *jsonrpcClient
}

// NewBitcoinClient builds a client for one of BitcoinLegacy/BitcoinSegwit/
// BitcoinTaproot talking to a Bitcoin Core-compatible RPC endpoint.
func NewBitcoinClient(network derivation.Network, rpcURL string) *BitcoinClient {
	return &BitcoinClient{network: network, rpc: newJSONRPCClient(rpcURL)}
}

func (c *BitcoinClient) Network() derivation.Network { return c.network }

// GetBalance calls getreceivedbyaddress and returns a BTC decimal string
// converted to satoshis, matching the other clients' smallest-unit
// convention.
func (c *BitcoinClient) GetBalance(ctx context.Context, address string) (string, error) {
	result, err := c.rpc.call(ctx, "getreceivedbyaddress", []interface{}{address, 0})
	if err != nil {
		return "", err
	}
	var btc float64
	if err := json.Unmarshal(result, &btc); err != nil {
		return "", walleterr.Internal(err)
	}
	sats := new(big.Float).Mul(big.NewFloat(btc), big.NewFloat(1e8))
	satsInt, _ := sats.Int(nil)
	return satsInt.String(), nil
}

// GetNonce has no real Bitcoin analog; this is a UTXO-count proxy used
// only to give the interface a uniform shape across families.
func (c *BitcoinClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.rpc.call(ctx, "listunspent", []interface{}{0, 9999999, []string{address}})
	if err != nil {
		return 0, err
	}
	var utxos []json.RawMessage
	if err := json.Unmarshal(result, &utxos); err != nil {
		return 0, walleterr.Internal(err)
	}
	return uint64(len(utxos)), nil
}

func (c *BitcoinClient) EstimateFee(ctx context.Context, to string, amountWei *big.Int) (FeeEstimate, error) {
	result, err := c.rpc.call(ctx, "estimatesmartfee", []interface{}{6})
	if err != nil {
		return FeeEstimate{}, err
	}
	var decoded struct {
		FeeRate float64 `json:"feerate"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return FeeEstimate{}, walleterr.Internal(err)
	}
	// feerate is BTC/kvB; a plain P2WPKH-in/P2WPKH-out spend is ~140 vBytes.
	sats := decoded.FeeRate * 1e8 / 1000 * 140
	return FeeEstimate{TotalFee: big.NewInt(int64(sats)).String()}, nil
}

// Submit always fails: constructing and broadcasting a raw Bitcoin
// transaction requires UTXO selection and PSBT signing, which is out of
// scope for this implementation (SPEC_FULL.md Non-goals section).
func (c *BitcoinClient) Submit(ctx context.Context, tx *SignedTx) (string, error) {
	return "", walleterr.New(walleterr.KindChainUnavailable, "BITCOIN_SUBMIT_UNSUPPORTED", "Bitcoin transaction submission is not implemented")
}

// BuildAndSign is likewise unsupported for the same reason as Submit.
func (c *BitcoinClient) BuildAndSign(ctx context.Context, req SignRequest) (*SignedTx, error) {
	return nil, walleterr.New(walleterr.KindChainUnavailable, "BITCOIN_SIGN_UNSUPPORTED", "Bitcoin transaction construction is not implemented")
}

func (c *BitcoinClient) Status(ctx context.Context, txHash string) (TxStatus, error) {
	if _, err := chainhash.NewHashFromStr(txHash); err != nil {
		return StatusUnknown, walleterr.Validation("INVALID_TX_HASH", "not a valid transaction hash")
	}
	result, err := c.rpc.call(ctx, "gettransaction", []interface{}{txHash})
	if err != nil {
		return StatusUnknown, nil
	}
	var decoded struct {
		Confirmations int `json:"confirmations"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return StatusUnknown, nil
	}
	if decoded.Confirmations > 0 {
		return StatusConfirmed, nil
	}
	return StatusPending, nil
}

func (c *BitcoinClient) ValidateAddress(address string) bool {
	switch c.network.Family {
	case derivation.FamilyBitcoinSegwit, derivation.FamilyBitcoinTaproot:
		return strings.HasPrefix(address, "bc1")
	case derivation.FamilyBitcoinLegacy:
		return strings.HasPrefix(address, "1") || strings.HasPrefix(address, "3")
	default:
		return false
	}
}

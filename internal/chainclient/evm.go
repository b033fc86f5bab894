package chainclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/walleterr"
	"github.com/defisafe/walletd/params"
)

// EVMClient talks JSON-RPC to an Ethereum-family node, built directly over
// net/http + encoding/json rather than a generated RPC client.
type EVMClient struct {
	network derivation.Network
	chainID uint64
	rpc     *jsonrpcClient
}

// NewEVMClient builds a client for network talking to rpcURL.
func NewEVMClient(network derivation.Network, rpcURL string, chainID uint64) *EVMClient {
	return &EVMClient{network: network, chainID: chainID, rpc: newJSONRPCClient(rpcURL)}
}

func (c *EVMClient) Network() derivation.Network { return c.network }

func (c *EVMClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	return c.rpc.call(ctx, method, params)
}

// hexToBigInt parses a 0x-prefixed hex integer as returned by every
// eth_* RPC call, via uint256 (the same fixed-width type go-ethereum
// itself uses for balances/fees) rather than arbitrary-precision big.Int.
func hexToBigInt(hexStr string) (*big.Int, error) {
	if strings.TrimPrefix(hexStr, "0x") == "" {
		return big.NewInt(0), nil
	}
	v, err := uint256.FromHex(hexStr)
	if err != nil {
		return nil, fmt.Errorf("chainclient: invalid hex integer %q", hexStr)
	}
	return v.ToBig(), nil
}

func (c *EVMClient) GetBalance(ctx context.Context, address string) (string, error) {
	result, err := c.call(ctx, "eth_getBalance", []interface{}{address, "latest"})
	if err != nil {
		return "", err
	}
	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return "", walleterr.Internal(err)
	}
	v, err := hexToBigInt(hexVal)
	if err != nil {
		return "", walleterr.Internal(err)
	}
	return v.String(), nil
}

func (c *EVMClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, "pending"})
	if err != nil {
		return 0, err
	}
	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return 0, walleterr.Internal(err)
	}
	v, err := hexToBigInt(hexVal)
	if err != nil {
		return 0, walleterr.Internal(err)
	}
	return v.Uint64(), nil
}

// EstimateFee applies a simple EIP-1559 formula:
// max_fee = 2 x base, max_priority = max(base/10, 1 gwei), gas_limit = 21000
// for a plain transfer.
func (c *EVMClient) EstimateFee(ctx context.Context, to string, amountWei *big.Int) (FeeEstimate, error) {
	result, err := c.call(ctx, "eth_gasPrice", []interface{}{})
	if err != nil {
		return FeeEstimate{}, err
	}
	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return FeeEstimate{}, walleterr.Internal(err)
	}
	base, err := hexToBigInt(hexVal)
	if err != nil {
		return FeeEstimate{}, walleterr.Internal(err)
	}

	maxFee := new(big.Int).Mul(base, big.NewInt(2))
	maxPriority := new(big.Int).Div(base, big.NewInt(10))
	if maxPriority.Cmp(big.NewInt(params.MinGasPriceWei)) < 0 {
		maxPriority = big.NewInt(params.MinGasPriceWei)
	}

	return FeeEstimate{
		MaxFeePerGasWei:         maxFee,
		MaxPriorityFeePerGasWei: maxPriority,
		GasLimit:                params.PlainTransferGasLimit,
		TotalFee:                new(big.Int).Mul(maxFee, big.NewInt(params.PlainTransferGasLimit)).String(),
	}, nil
}

func (c *EVMClient) ValidateAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// encodeUnsignedTx builds the EIP-1559 signing payload:
// 0x02 || rlp([chainId, nonce, maxPriorityFeePerGas, maxFeePerGas,
// gasLimit, to, value, data, accessList]).
func (c *EVMClient) encodeUnsignedTx(req SignRequest) ([]byte, error) {
	toBytes, err := hex.DecodeString(strings.TrimPrefix(req.To, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chainclient: invalid destination address: %w", err)
	}
	list := []interface{}{
		big.NewInt(0).SetUint64(c.chainID),
		req.Nonce,
		req.Fee.MaxPriorityFeePerGasWei,
		req.Fee.MaxFeePerGasWei,
		req.Fee.GasLimit,
		toBytes,
		req.AmountWei,
		[]byte{},       // data: empty for a plain transfer
		[]interface{}{}, // access list: empty
	}
	return rlpEncode(list), nil
}

func keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// BuildAndSign encodes, hashes and signs an EIP-1559 transaction for the
// EVM family.
func (c *EVMClient) BuildAndSign(ctx context.Context, req SignRequest) (*SignedTx, error) {
	unsigned, err := c.encodeUnsignedTx(req)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindValidation, "INVALID_TX", "could not encode transaction", err)
	}
	signingPayload := append([]byte{0x02}, unsigned...)
	digest := keccak256(signingPayload)

	var raw []byte
	err = req.SigningKey.With(func(priv []byte) error {
		r, s, recID, signErr := ecdsaSignRecoverable(priv, digest)
		if signErr != nil {
			return walleterr.Wrap(walleterr.KindCryptoError, "SIGN_FAILED", "transaction signing failed", signErr)
		}
		toBytes, _ := hex.DecodeString(strings.TrimPrefix(req.To, "0x"))
		signedList := []interface{}{
			big.NewInt(0).SetUint64(c.chainID),
			req.Nonce,
			req.Fee.MaxPriorityFeePerGasWei,
			req.Fee.MaxFeePerGasWei,
			req.Fee.GasLimit,
			toBytes,
			req.AmountWei,
			[]byte{},
			[]interface{}{},
			uint64(recID),
			r,
			s,
		}
		raw = append([]byte{0x02}, rlpEncode(signedList)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	txHash := "0x" + hex.EncodeToString(keccak256(raw))
	return &SignedTx{Raw: raw, TxHash: txHash}, nil
}

func (c *EVMClient) Submit(ctx context.Context, tx *SignedTx) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", []interface{}{"0x" + hex.EncodeToString(tx.Raw)})
	if err != nil {
		return "", walleterr.Wrap(walleterr.KindSubmissionFailed, "SUBMIT_FAILED", "transaction rejected by chain", err)
	}
	var hash string
	if err := json.Unmarshal(result, &hash); err != nil {
		return tx.TxHash, nil
	}
	return hash, nil
}

func (c *EVMClient) Status(ctx context.Context, txHash string) (TxStatus, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return StatusUnknown, err
	}
	if string(result) == "null" {
		// No receipt yet: distinguish "pending in mempool" from "never seen".
		pending, pendErr := c.call(ctx, "eth_getTransactionByHash", []interface{}{txHash})
		if pendErr != nil || string(pending) == "null" {
			return StatusUnknown, nil
		}
		return StatusPending, nil
	}
	var receipt struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result, &receipt); err != nil {
		return StatusUnknown, walleterr.Internal(err)
	}
	statusVal, err := hexToBigInt(receipt.Status)
	if err != nil {
		return StatusUnknown, nil
	}
	if statusVal.Cmp(big.NewInt(1)) == 0 {
		return StatusConfirmed, nil
	}
	return StatusFailed, nil
}

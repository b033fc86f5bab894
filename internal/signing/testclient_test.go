package signing

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/derivation"
)

var (
	errTestEstimateFailed = errors.New("test: estimate fee failed")
	errTestSignFailed     = errors.New("test: sign failed")
	errTestSubmitFailed   = errors.New("test: submit failed")
)

// fakeClient is a minimal, fully controllable ChainClient test double. The
// testmock-gated chainclient.MockClient is not used here so these tests run
// under the default build (no build tag required).
type fakeClient struct {
	network derivation.Network

	mu           sync.Mutex
	nonces       map[string]uint64
	submitFails  bool
	signFails    bool
	estimateFails bool
	submitCount  int
}

func newFakeClient(network derivation.Network) *fakeClient {
	return &fakeClient{network: network, nonces: make(map[string]uint64)}
}

func (f *fakeClient) Network() derivation.Network { return f.network }

func (f *fakeClient) GetBalance(ctx context.Context, address string) (string, error) {
	return "0", nil
}

func (f *fakeClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[address], nil
}

func (f *fakeClient) EstimateFee(ctx context.Context, to string, amountWei *big.Int) (chainclient.FeeEstimate, error) {
	if f.estimateFails {
		return chainclient.FeeEstimate{}, errTestEstimateFailed
	}
	return chainclient.FeeEstimate{
		MaxFeePerGasWei:         big.NewInt(2_000_000_000),
		MaxPriorityFeePerGasWei: big.NewInt(1_000_000_000),
		GasLimit:                21000,
	}, nil
}

func (f *fakeClient) BuildAndSign(ctx context.Context, req chainclient.SignRequest) (*chainclient.SignedTx, error) {
	if f.signFails {
		return nil, errTestSignFailed
	}
	return &chainclient.SignedTx{Raw: []byte("raw"), TxHash: "0xfaketxhash"}, nil
}

func (f *fakeClient) Submit(ctx context.Context, tx *chainclient.SignedTx) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCount++
	if f.submitFails {
		return "", errTestSubmitFailed
	}
	return tx.TxHash, nil
}

func (f *fakeClient) Status(ctx context.Context, txHash string) (chainclient.TxStatus, error) {
	return chainclient.StatusConfirmed, nil
}

func (f *fakeClient) ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && len(address) == 42
}

//go:build testmock

package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/walleterr"
)

// MockClient is a fully in-memory ChainClient used by its own tests and by
// local/dev builds that set WALLETD_MOCK_CHAIN=1. Fees are fixed; each
// BuildAndSign call produces a random "0xmock<uuid>" transaction hash. It is compiled only under the testmock build tag
// so it can never be linked into a default production build by accident.
type MockClient struct {
	network derivation.Network

	mu        sync.Mutex
	nonces    map[string]uint64
	balances  map[string]*big.Int
	submitted map[string]TxStatus
}

// NewMockClient builds a MockClient seeded with zero balances/nonces.
func NewMockClient(network derivation.Network) *MockClient {
	return &MockClient{
		network:   network,
		nonces:    make(map[string]uint64),
		balances:  make(map[string]*big.Int),
		submitted: make(map[string]TxStatus),
	}
}

func (m *MockClient) Network() derivation.Network { return m.network }

func (m *MockClient) SetBalance(address string, wei *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[address] = wei
}

func (m *MockClient) SetNonce(address string, nonce uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonces[address] = nonce
}

func (m *MockClient) GetBalance(ctx context.Context, address string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[address]; ok {
		return b.String(), nil
	}
	return "0", nil
}

func (m *MockClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonces[address], nil
}

func (m *MockClient) EstimateFee(ctx context.Context, to string, amountWei *big.Int) (FeeEstimate, error) {
	return FeeEstimate{
		MaxFeePerGasWei:         big.NewInt(2_000_000_000),
		MaxPriorityFeePerGasWei: big.NewInt(1_000_000_000),
		GasLimit:                21000,
		TotalFee:                "42000000000000",
	}, nil
}

func (m *MockClient) BuildAndSign(ctx context.Context, req SignRequest) (*SignedTx, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, walleterr.Internal(err)
	}
	hash := "0xmock" + id.String()
	return &SignedTx{Raw: []byte(hash), TxHash: hash}, nil
}

func (m *MockClient) Submit(ctx context.Context, tx *SignedTx) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted[tx.TxHash] = StatusConfirmed
	return tx.TxHash, nil
}

func (m *MockClient) Status(ctx context.Context, txHash string) (TxStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.submitted[txHash]; ok {
		return s, nil
	}
	return StatusUnknown, nil
}

func (m *MockClient) ValidateAddress(address string) bool {
	return len(address) > 0
}

// FailingNonceMockClient is a minimal noncecoord.ChainNonceGetter that
// always fails, used
// to exercise noncecoord.Coordinator's ChainUnavailable bootstrap path.
type FailingNonceMockClient struct{ Err error }

func (f FailingNonceMockClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return 0, fmt.Errorf("chainclient: mock nonce source failure")
}

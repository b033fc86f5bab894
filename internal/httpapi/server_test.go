package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defisafe/walletd/internal/authstore"
	"github.com/defisafe/walletd/internal/bridge"
	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/derivation"
	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/noncecoord"
	"github.com/defisafe/walletd/internal/ratelimit"
	"github.com/defisafe/walletd/internal/secretbuf"
	"github.com/defisafe/walletd/internal/session"
	"github.com/defisafe/walletd/internal/signing"
	"github.com/defisafe/walletd/internal/walletstore"
)

// fakeClient is a minimal, always-succeeding ChainClient test double. The
// testmock-gated chainclient.MockClient isn't used here so this package's
// tests run under the default build, the same reasoning signing's own
// fakeClient documents.
type fakeClient struct{ network derivation.Network }

func (f fakeClient) Network() derivation.Network { return f.network }
func (f fakeClient) GetBalance(ctx context.Context, address string) (string, error) {
	return "1000000000000000000", nil
}
func (f fakeClient) GetNonce(ctx context.Context, address string) (uint64, error) { return 0, nil }
func (f fakeClient) EstimateFee(ctx context.Context, to string, amountWei *big.Int) (chainclient.FeeEstimate, error) {
	return chainclient.FeeEstimate{MaxFeePerGasWei: big.NewInt(1), MaxPriorityFeePerGasWei: big.NewInt(1), GasLimit: 21000}, nil
}
func (f fakeClient) BuildAndSign(ctx context.Context, req chainclient.SignRequest) (*chainclient.SignedTx, error) {
	return &chainclient.SignedTx{Raw: []byte("raw"), TxHash: "0xfaketxhash"}, nil
}
func (f fakeClient) Submit(ctx context.Context, tx *chainclient.SignedTx) (string, error) {
	return tx.TxHash, nil
}
func (f fakeClient) Status(ctx context.Context, txHash string) (chainclient.TxStatus, error) {
	return chainclient.StatusConfirmed, nil
}
func (f fakeClient) ValidateAddress(address string) bool { return true }

type fixedKEKProvider struct{ id string }

func (p fixedKEKProvider) CurrentID() string { return p.id }
func (p fixedKEKProvider) Get(id string) (*secretbuf.Buffer, error) {
	return secretbuf.New(make([]byte, 32)), nil
}

// newTestServer wires a full Server over in-memory stores and a fake
// Ethereum client, mirroring cmd/walletd's wiring at a much smaller scale.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	walletStore, err := walletstore.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { walletStore.Close() })

	authStore, err := authstore.OpenMemory(10)
	require.NoError(t, err)
	t.Cleanup(func() { authStore.Close() })

	bridgeLedger, err := bridge.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { bridgeLedger.Close() })

	client := fakeClient{network: derivation.Ethereum}
	clients := map[string]chainclient.ChainClient{derivation.Ethereum.Name: client}
	nonces := noncecoord.New(noncecoord.MultiChainSource{derivation.Ethereum.Name: client})
	pipeline := signing.New(walletStore, fixedKEKProvider{id: "test-kek"}, nonces, clients, 1<<20)

	sessions := session.New(session.Config{})
	tokens := session.NewTokenMinter([]byte("test-session-secret-test-session"))
	limiter := ratelimit.New(ratelimit.Config{RatePerSecond: 1000, Burst: 1000})

	return New(Config{
		Pipeline:   pipeline,
		Auth:       authStore,
		Sessions:   sessions,
		Tokens:     tokens,
		Limiter:    limiter,
		Bridge:     bridgeLedger,
		AdminToken: "test-admin-token",
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func registerAndLogin(t *testing.T, h http.Handler, email, password string) authResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", registerRequest{
		Email: email, Password: password, ConfirmPassword: password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp authResponse
	decode(t, rec, &resp)
	return resp
}

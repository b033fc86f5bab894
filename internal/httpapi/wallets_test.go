package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func createTestWallet(t *testing.T, h http.Handler, bearer, name string) createWalletResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/wallets", createWalletRequest{
		Name:     name,
		Password: "a wallet password long enough",
		Networks: []string{"ethereum"},
	}, bearer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp createWalletResponse
	decode(t, rec, &resp)
	return resp
}

func TestCreateWalletReturnsMnemonicOnce(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "wallet-owner@example.com", "correct horse battery staple")

	resp := createTestWallet(t, h, auth.AccessToken, "primary")
	require.Equal(t, "primary", resp.Name)
	require.NotEmpty(t, resp.Mnemonic)
}

func TestCreateWalletRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodPost, "/api/wallets", createWalletRequest{Name: "x"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListWalletsReturnsCreatedWallets(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "lister@example.com", "correct horse battery staple")
	createTestWallet(t, h, auth.AccessToken, "one")
	createTestWallet(t, h, auth.AccessToken, "two")

	rec := doJSON(t, h, http.MethodGet, "/api/wallets", nil, auth.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var wallets []walletDTO
	decode(t, rec, &wallets)
	require.Len(t, wallets, 2)
}

func TestBalanceRequiresNetworkParam(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "balance@example.com", "correct horse battery staple")
	createTestWallet(t, h, auth.AccessToken, "primary")

	rec := doJSON(t, h, http.MethodGet, "/api/wallets/primary/balance", nil, auth.AccessToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/wallets/primary/balance?network=ethereum", nil, auth.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSendThenHistoryRoundTrip(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "sender@example.com", "correct horse battery staple")
	createTestWallet(t, h, auth.AccessToken, "primary")

	rec := doJSON(t, h, http.MethodPost, "/api/wallets/primary/send", sendRequest{
		To:       "0x000000000000000000000000000000000000aa",
		Amount:   "1000000000000000000",
		Network:  "ethereum",
		Password: "a wallet password long enough",
	}, auth.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/wallets/primary/history", nil, auth.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []txRecordDTO
	decode(t, rec, &history)
	require.Len(t, history, 1)
	require.Equal(t, "0x000000000000000000000000000000000000aa", history[0].ToAddress)
}

func TestDeleteWalletRemovesIt(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "deleter@example.com", "correct horse battery staple")
	createTestWallet(t, h, auth.AccessToken, "primary")

	rec := doJSON(t, h, http.MethodDelete, "/api/wallets/primary", nil, auth.AccessToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/wallets/primary/balance?network=ethereum", nil, auth.AccessToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRotateKeyWithWrongPasswordFails(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	auth := registerAndLogin(t, h, "rotator@example.com", "correct horse battery staple")
	createTestWallet(t, h, auth.AccessToken, "primary")

	rec := doJSON(t, h, http.MethodPost, "/api/wallets/primary/rotate-key", rotateKeyRequest{
		Password: "totally wrong password",
	}, auth.AccessToken)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

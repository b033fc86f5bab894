package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestStreamRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/wallets/primary/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestStreamAcceptsValidTokenViaQueryParam(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	auth := registerAndLogin(t, s.Router(), "streamer@example.com", "correct horse battery staple")
	createTestWallet(t, s.Router(), auth.AccessToken, "primary")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/wallets/primary/stream?token=" + url.QueryEscape(auth.AccessToken)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.NoError(t, err)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/defisafe/walletd/internal/walleterr"
)

const streamPushInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Every origin is accepted. Browsers cannot set Authorization headers
	// on the WebSocket handshake, so the session token is required via
	// query param below instead, and it is the only gate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream serves `GET /api/wallets/{name}/stream`: a best-effort
// push of that wallet's recently observed sends. Purely additive — no
// core invariant depends on a client ever receiving one of these frames,
// so write failures just close the socket rather than surfacing an error.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if _, ok := s.sessions.Validate(token); !ok {
		writeError(w, walleterr.Unauthorized("INVALID_TOKEN"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	walletName := ps.ByName("name")
	ticker := time.NewTicker(streamPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			history := s.pipeline.History(walletName)
			_ = conn.SetWriteDeadline(time.Now().Add(streamPushInterval))
			if err := conn.WriteJSON(toTxRecordDTOs(history)); err != nil {
				return
			}
		}
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/defisafe/walletd/internal/walleterr"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, walleterr.Validation("INVALID_BODY", "request body is not valid JSON"))
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, walleterr.Validation("PASSWORD_MISMATCH", "password and confirm_password must match"))
		return
	}

	user, err := s.auth.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.mintAuthResponse(r, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type loginRequest struct {
	EmailOrWalletID string `json:"email_or_wallet_id"`
	Password        string `json:"password"`
}

// handleLogin authenticates by email. The body field is named
// email_or_wallet_id, but AuthStore only indexes by email — it has no
// wallet-id-keyed user lookup — so a wallet id in this field fails the
// same generic-credentials path a wrong email would.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, walleterr.Validation("INVALID_BODY", "request body is not valid JSON"))
		return
	}

	user, err := s.auth.Verify(req.EmailOrWalletID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.mintAuthResponse(r, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, walleterr.Unauthorized("MISSING_TOKEN"))
		return
	}
	user, err := s.auth.GetByID(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := bearerToken(r)
	s.sessions.Revoke(token)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, walleterr.Validation("INVALID_BODY", "refresh_token is required"))
		return
	}

	sessionID, userID, ok := s.sessions.ValidateRefresh(req.RefreshToken)
	if !ok {
		writeError(w, walleterr.Unauthorized("INVALID_REFRESH_TOKEN"))
		return
	}
	user, err := s.auth.GetByID(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	accessToken, err := s.tokens.Mint(userID.String(), accessTokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	refreshToken, err := s.tokens.Mint(userID.String(), refreshTokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sessions.Rotate(sessionID, accessToken, refreshToken); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: toUserDTO(user), AccessToken: accessToken, RefreshToken: refreshToken})
}

package httpapi

import (
	"net/http"

	"github.com/defisafe/walletd/internal/walletmodel"
)

// mintAuthResponse mints a fresh access/refresh token pair for user,
// registers a session for it (recording r's IP/User-Agent for audit), and
// assembles the AuthResponse body shared by register/login.
func (s *Server) mintAuthResponse(r *http.Request, user *walletmodel.User) (authResponse, error) {
	accessToken, err := s.tokens.Mint(user.ID.String(), accessTokenTTL)
	if err != nil {
		return authResponse{}, err
	}
	refreshToken, err := s.tokens.Mint(user.ID.String(), refreshTokenTTL)
	if err != nil {
		return authResponse{}, err
	}
	if _, err := s.sessions.Create(user.ID, accessToken, refreshToken, r.RemoteAddr, r.Header.Get("User-Agent")); err != nil {
		return authResponse{}, err
	}
	return authResponse{User: toUserDTO(user), AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

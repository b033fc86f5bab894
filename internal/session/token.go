package session

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/defisafe/walletd/internal/walleterr"
)

// claims is the JWT payload minted for a session's access token. The
// registry itself treats access tokens as opaque strings and never
// inspects the token's internal structure; TokenMinter exists so the
// HTTP layer has a concrete, signed token format to hand callers instead
// of a bare random string.
type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenMinter issues and parses HS256 JWTs for session access tokens.
type TokenMinter struct {
	secret []byte
}

func NewTokenMinter(secret []byte) *TokenMinter {
	return &TokenMinter{secret: secret}
}

// Mint produces a signed access token for userID, valid for ttl.
func (m *TokenMinter) Mint(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", walleterr.Internal(err)
	}
	return signed, nil
}

// UserID extracts the subject from a token minted by Mint, without
// consulting the registry. The registry's Validate call is still the
// authority on whether the session is live; this is a cheap pre-check
// for malformed or tampered tokens.
func (m *TokenMinter) UserID(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", walleterr.Unauthorized("INVALID_TOKEN")
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return "", walleterr.Unauthorized("INVALID_TOKEN")
	}
	return c.UserID, nil
}

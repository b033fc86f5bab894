package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/defisafe/walletd/internal/walleterr"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userIDKey
)

// middleware wraps an httprouter.Handle, the shape every route in this
// package's chain is built from (request-id injection, deadline
// injection, rate-limit check, session-auth check).
type middleware func(httprouter.Handle) httprouter.Handle

// chain applies mws in order so the first middleware listed is the
// outermost: chain(h, a, b) runs a, then b, then h.
func (s *Server) chain(h httprouter.Handle, mws ...middleware) httprouter.Handle {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// withRequestID stamps every request with a fresh id, echoed back on
// X-Request-Id so client and server logs correlate.
func (s *Server) withRequestID(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next(w, r.WithContext(ctx), ps)
	}
}

// withDeadline attaches d to the request context: every inbound
// request carries a deadline.
func (s *Server) withDeadline(d time.Duration) middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next(w, r.WithContext(ctx), ps)
		}
	}
}

// withRateLimit checks the caller's token bucket before the request
// reaches business logic.
func (s *Server) withRateLimit(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ip, err := s.limiter.ClientIP(r)
		if err != nil {
			writeError(w, err)
			return
		}
		result := s.limiter.Check(ip)
		if !result.Allowed {
			writeRateLimited(w, result.RetryAfter)
			return
		}
		next(w, r, ps)
	}
}

// withAuth resolves the bearer access token to a user id via the session
// registry, rejecting with 401 if missing, malformed, or expired. The
// resolved user id is attached to the request context for handlers.
func (s *Server) withAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, walleterr.Unauthorized("MISSING_TOKEN"))
			return
		}
		id, ok := s.sessions.Validate(token)
		if !ok {
			writeError(w, walleterr.Unauthorized("INVALID_TOKEN"))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		next(w, r.WithContext(ctx), ps)
	}
}

// withAdmin gates operator-only endpoints (kek-rotate) on a separate
// shared secret, never on a bearer session — an admin token is not tied
// to any one account.
func (s *Server) withAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if s.adminToken == "" {
			writeError(w, walleterr.New(walleterr.KindForbidden, "ADMIN_DISABLED", "admin endpoint is disabled"))
			return
		}
		if subtleEqual(r.Header.Get("X-Admin-Token"), s.adminToken) {
			next(w, r, ps)
			return
		}
		writeError(w, walleterr.Unauthorized("INVALID_ADMIN_TOKEN"))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}

func userIDFrom(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return id, ok
}

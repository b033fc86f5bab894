package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/defisafe/walletd/internal/walleterr"
)

// statusFor maps a walleterr.Kind to its HTTP status. Validation is 400
// uniformly; no handler answers 422.
func statusFor(kind walleterr.Kind) int {
	switch kind {
	case walleterr.KindValidation:
		return http.StatusBadRequest
	case walleterr.KindUnauthorized, walleterr.KindAuthenticationFail:
		return http.StatusUnauthorized
	case walleterr.KindForbidden:
		return http.StatusForbidden
	case walleterr.KindNotFound:
		return http.StatusNotFound
	case walleterr.KindConflict:
		return http.StatusConflict
	case walleterr.KindLocked:
		return http.StatusLocked
	case walleterr.KindRateLimited:
		return http.StatusTooManyRequests
	case walleterr.KindChainUnavailable:
		return http.StatusServiceUnavailable
	case walleterr.KindSubmissionFailed:
		return http.StatusBadGateway
	case walleterr.KindCryptoError, walleterr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError translates any error into the `{error, code, message}`
// response shape. Errors that don't carry a walleterr.Kind are treated as
// internal — never echoing the underlying error text back to the client,
// since it may wrap something unsafe to disclose.
func writeError(w http.ResponseWriter, err error) {
	e, ok := walleterr.As(err)
	if !ok {
		e = walleterr.Internal(err)
	}
	status := statusFor(e.Kind)
	if status >= 500 {
		// CryptoError/Internal: generic external message, detail stays server-side.
		writeJSON(w, status, errorResponse{Error: string(e.Kind), Code: "INTERNAL", Message: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: string(e.Kind), Code: e.Code, Message: e.Message})
}

// writeRateLimited writes a 429 carrying a Retry-After header, using the
// exact wait time ratelimit.Limiter computed rather than re-deriving it
// from an error message.
func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:   string(walleterr.KindRateLimited),
		Code:    "RATE_LIMIT_EXCEEDED",
		Message: "too many requests",
	})
}

package signing

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

// idempotencyTTL is the replay window during which a repeated send with
// the same idempotency key returns the original result instead of
// resubmitting.
const idempotencyTTL = 24 * time.Hour

type idempotencyRecord struct {
	RequestHash string    `json:"requestHash"`
	TxHash      string    `json:"txHash"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// idempotencyKey derives the cache key from client_request_id alone; the
// (wallet, to, amount, network) tuple is hashed separately into
// RequestHash so a replay with a different body is detected as a conflict
// rather than silently served the earlier response.
func idempotencyKey(clientRequestID string) []byte {
	return []byte("idem:" + clientRequestID)
}

func requestHash(walletName, to, amount, network string) string {
	h := sha256.Sum256([]byte(walletName + "|" + to + "|" + amount + "|" + network))
	return fmt.Sprintf("%x", h)
}

// lookupIdempotent returns the cached tx hash for clientRequestID if present
// and unexpired. When the cached request's hash differs from the current
// call's, it returns ErrIdempotencyConflict so the caller surfaces a 409
// rather than silently returning someone else's transaction hash.
func (p *Pipeline) lookupIdempotent(clientRequestID, walletName, to, amount, network string) (string, error) {
	if clientRequestID == "" {
		return "", nil
	}
	raw := p.idempotency.Get(nil, idempotencyKey(clientRequestID))
	if raw == nil {
		return "", nil
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", nil
	}
	if time.Now().After(rec.ExpiresAt) {
		return "", nil
	}
	wantHash := requestHash(walletName, to, amount, network)
	if rec.RequestHash != wantHash {
		return "", ErrIdempotencyConflict
	}
	return rec.TxHash, nil
}

func (p *Pipeline) rememberIdempotent(clientRequestID, walletName, to, amount, network, txHash string) {
	if clientRequestID == "" {
		return
	}
	rec := idempotencyRecord{
		RequestHash: requestHash(walletName, to, amount, network),
		TxHash:      txHash,
		ExpiresAt:   time.Now().Add(idempotencyTTL),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	p.idempotency.Set(idempotencyKey(clientRequestID), payload)
}

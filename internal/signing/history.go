package signing

import (
	"sync"
	"time"
)

// maxHistoryPerWallet bounds the in-memory history ring so a long-lived
// wallet can't grow this unbounded. This is not a full transaction-history
// index backed by an external explorer, just the pipeline remembering its
// own recent sends; GET /api/wallets/{name}/history serves from this local
// record.
const maxHistoryPerWallet = 200

// TxRecord is one entry in a wallet's locally-observed send history.
type TxRecord struct {
	ToAddress string
	Amount    string
	Network   string
	TxHash    string
	SentAt    time.Time
}

type walletHistory struct {
	mu      sync.Mutex
	entries map[string][]TxRecord
}

func newWalletHistory() *walletHistory {
	return &walletHistory{entries: make(map[string][]TxRecord)}
}

func (h *walletHistory) record(walletName string, rec TxRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := append(h.entries[walletName], rec)
	if len(entries) > maxHistoryPerWallet {
		entries = entries[len(entries)-maxHistoryPerWallet:]
	}
	h.entries[walletName] = entries
}

// History returns walletName's recorded sends, most recent first.
func (p *Pipeline) History(walletName string) []TxRecord {
	p.history.mu.Lock()
	defer p.history.mu.Unlock()
	src := p.history.entries[walletName]
	out := make([]TxRecord, len(src))
	for i, rec := range src {
		out[len(src)-1-i] = rec
	}
	return out
}

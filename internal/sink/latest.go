package sink

import (
	"sync"
	"time"

	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/health"
)

// Status is what the admin API reports about the live connection.
type Status struct {
	Exchange     string    `json:"exchange"`
	Connectivity string    `json:"connectivity"`
	Since        time.Time `json:"since"`
	Updates      uint64    `json:"book_updates"`
	LastUpdate   time.Time `json:"last_update,omitempty"`
}

// Latest keeps the most recent book and connectivity for readers on other
// goroutines, and drives readiness.
type Latest struct {
	common.NopPublisher

	mu     sync.RWMutex
	status Status
	book   common.BookSnapshot
	now    func() time.Time
}

func NewLatest(exchange string) *Latest {
	l := &Latest{now: time.Now}
	l.status = Status{Exchange: exchange, Connectivity: common.Disconnected.String(), Since: l.now().UTC()}
	return l
}

func (l *Latest) PublishConnectivity(c common.Connectivity) {
	l.mu.Lock()
	if l.status.Connectivity != c.String() {
		l.status.Connectivity = c.String()
		l.status.Since = l.now().UTC()
	}
	if c == common.Disconnected {
		l.book = common.BookSnapshot{}
	}
	l.mu.Unlock()
	health.Set(c == common.Connected, c.String())
}

func (l *Latest) PublishBook(b common.BookSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.book = b
	l.status.Updates++
	l.status.LastUpdate = l.now().UTC()
}

func (l *Latest) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Book returns the last snapshot, truncated to depth levels per side nearest
// the spread when depth > 0.
func (l *Latest) Book(depth int) common.BookSnapshot {
	l.mu.RLock()
	b := l.book
	l.mu.RUnlock()
	if depth <= 0 {
		return b
	}
	out := b
	if len(out.Bids) > depth {
		out.Bids = out.Bids[len(out.Bids)-depth:]
	}
	if len(out.Asks) > depth {
		out.Asks = out.Asks[:depth]
	}
	return out
}

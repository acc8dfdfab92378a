// Package cache keeps resolved instrument identities so a reconnect or a
// restart can skip the symbol lookup round-trip.
package cache

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("cache: not found")

// Asset is the venue identity of one traded instrument leg.
type Asset struct {
	ID               string `json:"id"`
	Symbol           string `json:"symbol"`
	Precision        int    `json:"precision"`
	MarketFeePercent int64  `json:"market_fee_percent"`
}

// Pair holds both legs of the configured market.
type Pair struct {
	ChainID string `json:"chain_id,omitempty"`
	Base    Asset  `json:"base"`
	Quote   Asset  `json:"quote"`
}

// Key names a pair entry for an exchange.
func Key(exchange, base, quote string) string {
	return exchange + "/" + base + "/" + quote
}

type Store interface {
	Load(key string) (Pair, error)
	Save(key string, p Pair) error
	Close() error
}

// Memory is a Store that lives as long as the process.
type Memory struct {
	mu    sync.RWMutex
	pairs map[string]Pair
}

func NewMemory() *Memory { return &Memory{pairs: make(map[string]Pair)} }

func (m *Memory) Load(key string) (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pairs[key]
	if !ok {
		return Pair{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) Save(key string, p Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[key] = p
	return nil
}

func (m *Memory) Close() error { return nil }

package bitshares

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"venuegw/internal/cache"
	"venuegw/internal/infra/log"
)

// ErrInstrumentNotFound means the venue does not list a configured symbol.
var ErrInstrumentNotFound = errors.New("instrument not found")

// assetObject is the subset of a venue asset object the gateway reads.
type assetObject struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Precision int    `json:"precision"`
	Options   struct {
		MarketFeePercent int64 `json:"market_fee_percent"`
	} `json:"options"`
}

func (a assetObject) asset() cache.Asset {
	return cache.Asset{ID: a.ID, Symbol: a.Symbol, Precision: a.Precision, MarketFeePercent: a.Options.MarketFeePercent}
}

// scale is 10^precision.
func scale(a cache.Asset) decimal.Decimal {
	return decimal.New(1, int32(a.Precision))
}

// identities is the instrument identity cache shared between the bootstrap
// call and the websocket handshake, optionally persisted to a Store.
type identities struct {
	mu     sync.RWMutex
	key    string
	pair   *cache.Pair
	store  cache.Store
	logger log.Logger
}

func newIdentities(key string, store cache.Store, logger log.Logger) *identities {
	if store == nil {
		store = cache.NewMemory()
	}
	return &identities{key: key, store: store, logger: logger}
}

func (i *identities) get() (cache.Pair, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.pair == nil {
		return cache.Pair{}, false
	}
	return *i.pair, true
}

func (i *identities) put(p cache.Pair) {
	i.mu.Lock()
	i.pair = &p
	i.mu.Unlock()
	if err := i.store.Save(i.key, p); err != nil {
		i.logger.Warn().Err(err).Str("key", i.key).Msg("identity cache write failed")
	}
}

// restore loads a previously persisted pair if none is held yet.
func (i *identities) restore() bool {
	if _, ok := i.get(); ok {
		return true
	}
	p, err := i.store.Load(i.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			i.logger.Warn().Err(err).Str("key", i.key).Msg("identity cache read failed")
		}
		return false
	}
	i.mu.Lock()
	i.pair = &p
	i.mu.Unlock()
	return true
}

func (i *identities) forget() {
	i.mu.Lock()
	i.pair = nil
	i.mu.Unlock()
}

// Package sink holds Publisher implementations the gateway fans its events
// out to.
package sink

import (
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
)

// Fanout forwards every event to each publisher in order.
type Fanout []common.Publisher

func (f Fanout) PublishConnectivity(c common.Connectivity) {
	for _, p := range f {
		p.PublishConnectivity(c)
	}
}

func (f Fanout) PublishBook(b common.BookSnapshot) {
	for _, p := range f {
		p.PublishBook(b)
	}
}

func (f Fanout) PublishOrder(o common.OrderUpdate) {
	for _, p := range f {
		p.PublishOrder(o)
	}
}

func (f Fanout) PublishTrade(t common.TradeUpdate) {
	for _, p := range f {
		p.PublishTrade(t)
	}
}

func (f Fanout) PublishWallet(w common.WalletUpdate) {
	for _, p := range f {
		p.PublishWallet(w)
	}
}

// Log writes events to a zerolog logger. Books go out at debug level.
type Log struct{ logger log.Logger }

func NewLog(logger log.Logger) *Log { return &Log{logger: log.Component(logger, "events")} }

func (l *Log) PublishConnectivity(c common.Connectivity) {
	l.logger.Info().Str("state", c.String()).Msg("connectivity")
}

func (l *Log) PublishBook(b common.BookSnapshot) {
	ev := l.logger.Debug().Int("bids", len(b.Bids)).Int("asks", len(b.Asks))
	if n := len(b.Bids); n > 0 {
		ev = ev.Float64("best_bid", b.Bids[n-1].Price)
	}
	if len(b.Asks) > 0 {
		ev = ev.Float64("best_ask", b.Asks[0].Price)
	}
	ev.Msg("book")
}

func (l *Log) PublishOrder(o common.OrderUpdate) {
	l.logger.Info().Interface("order", o).Msg("order")
}

func (l *Log) PublishTrade(t common.TradeUpdate) {
	l.logger.Info().Interface("trade", t).Msg("trade")
}

func (l *Log) PublishWallet(w common.WalletUpdate) {
	l.logger.Info().Interface("wallet", w).Msg("wallet")
}

// Metrics mirrors book depth and top of book into prometheus gauges.
type Metrics struct {
	common.NopPublisher
	exchange string
}

func NewMetrics(exchange string) *Metrics { return &Metrics{exchange: exchange} }

func (m *Metrics) PublishConnectivity(c common.Connectivity) {
	if c == common.Disconnected {
		metrics.BookLevels.WithLabelValues(m.exchange, "bid").Set(0)
		metrics.BookLevels.WithLabelValues(m.exchange, "ask").Set(0)
	}
}

func (m *Metrics) PublishBook(b common.BookSnapshot) {
	metrics.BookLevels.WithLabelValues(m.exchange, "bid").Set(float64(len(b.Bids)))
	metrics.BookLevels.WithLabelValues(m.exchange, "ask").Set(float64(len(b.Asks)))
	if n := len(b.Bids); n > 0 {
		metrics.BestBid.WithLabelValues(m.exchange).Set(b.Bids[n-1].Price)
	}
	if len(b.Asks) > 0 {
		metrics.BestAsk.WithLabelValues(m.exchange).Set(b.Asks[0].Price)
	}
}

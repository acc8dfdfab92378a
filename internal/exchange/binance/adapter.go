// Package binance resolves spot instrument increments and fees through the
// exchange REST API. It has no push transport yet.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	gobinance "github.com/adshao/go-binance/v2"

	"venuegw/internal/config"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/infra/network"
)

const Name = "binance"

var errSymbolNotListed = errors.New("symbol not listed")

type Adapter struct {
	cfg    config.Config
	client *gobinance.Client
	pub    common.Publisher
	logger log.Logger

	mu     sync.Mutex
	cached *common.HandshakeResult
}

func New(cfg config.Config, pub common.Publisher, logger log.Logger) *Adapter {
	if pub == nil {
		pub = common.NopPublisher{}
	}
	b := cfg.Exchanges.Binance
	client := gobinance.NewClient(b.APIKey, b.Secret)
	if b.BaseURL != "" {
		client.BaseURL = b.BaseURL
	}
	client.HTTPClient = network.NewHTTPClient()
	return &Adapter{cfg: cfg, client: client, pub: pub, logger: log.Component(logger, Name)}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) symbol() string { return a.cfg.Gateway.Base + a.cfg.Gateway.Quote }

func (a *Adapter) Handshake(ctx context.Context, useCache bool) (common.HandshakeResult, error) {
	start := time.Now()
	defer func() { metrics.BootstrapLatencyMs.Observe(float64(time.Since(start).Milliseconds())) }()

	a.mu.Lock()
	if useCache && a.cached != nil {
		res := *a.cached
		a.mu.Unlock()
		return res, nil
	}
	a.mu.Unlock()

	info, err := a.client.NewExchangeInfoService().Symbol(a.symbol()).Do(ctx)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(Name, "exchangeInfo").Inc()
		return common.HandshakeResult{}, fmt.Errorf("exchange info: %w", err)
	}
	var sym *gobinance.Symbol
	for i := range info.Symbols {
		if info.Symbols[i].Symbol == a.symbol() {
			sym = &info.Symbols[i]
			break
		}
	}
	if sym == nil {
		return common.HandshakeResult{}, fmt.Errorf("%w: %s", errSymbolNotListed, a.symbol())
	}

	var res common.HandshakeResult
	if pf := sym.PriceFilter(); pf != nil {
		res.MinTick = parse(pf.TickSize)
	}
	if lf := sym.LotSizeFilter(); lf != nil {
		res.MinSize = parse(lf.StepSize)
	}
	if res.MinTick <= 0 || res.MinSize <= 0 {
		return res, fmt.Errorf("unable to derive increments for %s", a.symbol())
	}
	res.MakerFee, res.TakerFee = a.fees(ctx)

	a.logger.Info().
		Str("symbol", a.symbol()).
		Float64("maker_fee", res.MakerFee).
		Float64("taker_fee", res.TakerFee).
		Float64("min_tick", res.MinTick).
		Float64("min_size", res.MinSize).
		Msg("handshake report")

	a.mu.Lock()
	a.cached = &res
	a.mu.Unlock()
	return res, nil
}

// fees prefers configured overrides, then the account's fee tier when
// credentials are present. Unknown fees are reported as zero.
func (a *Adapter) fees(ctx context.Context) (maker, taker float64) {
	g := a.cfg.Gateway
	if g.MakerFeePct != 0 && g.TakerFeePct != 0 {
		return g.MakerFeePct / 1e2, g.TakerFeePct / 1e2
	}
	if a.cfg.Exchanges.Binance.APIKey != "" {
		details, err := a.client.NewTradeFeeService().Symbol(a.symbol()).Do(ctx)
		if err != nil {
			metrics.APIErrorsTotal.WithLabelValues(Name, "tradeFee").Inc()
			a.logger.Warn().Err(err).Msg("trade fee lookup failed")
		}
		for _, d := range details {
			if d.Symbol == a.symbol() {
				maker, taker = parse(d.MakerCommission), parse(d.TakerCommission)
			}
		}
	}
	if g.MakerFeePct != 0 {
		maker = g.MakerFeePct / 1e2
	}
	if g.TakerFeePct != 0 {
		taker = g.TakerFeePct / 1e2
	}
	return maker, taker
}

// Ready reports false: market data streaming is not wired for this venue.
func (a *Adapter) Ready(ctx context.Context) bool {
	a.logger.Warn().Msg("push transport not available")
	a.pub.PublishConnectivity(common.Disconnected)
	return false
}

func (a *Adapter) Place(ctx context.Context, ord common.Order) []common.OrderUpdate { return nil }
func (a *Adapter) Cancel(ctx context.Context, orderID, nativeID string) []common.OrderUpdate { return nil }
func (a *Adapter) Replace(ctx context.Context, nativeID, price string) []common.OrderUpdate { return nil }
func (a *Adapter) CancelAll(ctx context.Context) []common.OrderUpdate { return nil }
func (a *Adapter) Close() error { return nil }

func parse(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

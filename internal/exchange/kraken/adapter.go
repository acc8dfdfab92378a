// Package kraken reads pair increments and fee tiers from the public REST
// API. Streaming and order entry are not available.
package kraken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"venuegw/internal/config"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/infra/network"
)

const Name = "kraken"

var errPairNotListed = errors.New("pair not listed")

type Adapter struct {
	cfg    config.Config
	http   *http.Client
	pub    common.Publisher
	logger log.Logger
}

func New(cfg config.Config, pub common.Publisher, logger log.Logger) *Adapter {
	if pub == nil {
		pub = common.NopPublisher{}
	}
	return &Adapter{cfg: cfg, http: network.NewHTTPClient(), pub: pub, logger: log.Component(logger, Name)}
}

func (a *Adapter) Name() string { return Name }

// mapSymbol translates common tickers to Kraken's names: BTC -> XBT.
func mapSymbol(symbol string) string {
	if strings.EqualFold(symbol, "BTC") {
		return "XBT"
	}
	return strings.ToUpper(symbol)
}

type assetPair struct {
	Altname      string      `json:"altname"`
	PairDecimals int         `json:"pair_decimals"`
	LotDecimals  int         `json:"lot_decimals"`
	TickSize     string      `json:"tick_size"`
	OrderMin     string      `json:"ordermin"`
	Fees         [][]float64 `json:"fees"`
	FeesMaker    [][]float64 `json:"fees_maker"`
}

// Handshake has nothing to cache: a single public request resolves everything.
func (a *Adapter) Handshake(ctx context.Context, useCache bool) (common.HandshakeResult, error) {
	start := time.Now()
	defer func() { metrics.BootstrapLatencyMs.Observe(float64(time.Since(start).Milliseconds())) }()

	pair := mapSymbol(a.cfg.Gateway.Base) + mapSymbol(a.cfg.Gateway.Quote)
	u := fmt.Sprintf("%s/0/public/AssetPairs?pair=%s", a.cfg.Exchanges.Kraken.BaseURL, url.QueryEscape(pair))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return common.HandshakeResult{}, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues(Name, "AssetPairs").Inc()
		return common.HandshakeResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	var body struct {
		Error  []string             `json:"error"`
		Result map[string]assetPair `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return common.HandshakeResult{}, fmt.Errorf("asset pairs: %w", err)
	}
	if len(body.Error) > 0 {
		metrics.APIErrorsTotal.WithLabelValues(Name, "AssetPairs").Inc()
		if strings.Contains(strings.Join(body.Error, ";"), "Unknown asset pair") {
			return common.HandshakeResult{}, fmt.Errorf("%w: %s", errPairNotListed, pair)
		}
		return common.HandshakeResult{}, fmt.Errorf("asset pairs: %s", strings.Join(body.Error, "; "))
	}
	var ap *assetPair
	for _, v := range body.Result {
		v := v
		ap = &v
		break
	}
	if ap == nil {
		return common.HandshakeResult{}, fmt.Errorf("%w: %s", errPairNotListed, pair)
	}

	res := common.HandshakeResult{
		MinTick:  math.Pow10(-ap.PairDecimals),
		MinSize:  math.Pow10(-ap.LotDecimals),
		TakerFee: firstTier(ap.Fees) / 1e2,
		MakerFee: firstTier(ap.FeesMaker) / 1e2,
	}
	if f, err := strconv.ParseFloat(ap.TickSize, 64); err == nil && f > 0 {
		res.MinTick = f
	}
	// ordermin is the smallest accepted order, usually coarser than the lot step
	if f, err := strconv.ParseFloat(ap.OrderMin, 64); err == nil && f > res.MinSize {
		res.MinSize = f
	}
	if g := a.cfg.Gateway; g.MakerFeePct != 0 {
		res.MakerFee = g.MakerFeePct / 1e2
	}
	if g := a.cfg.Gateway; g.TakerFeePct != 0 {
		res.TakerFee = g.TakerFeePct / 1e2
	}
	a.logger.Info().
		Str("pair", ap.Altname).
		Float64("maker_fee", res.MakerFee).
		Float64("taker_fee", res.TakerFee).
		Float64("min_tick", res.MinTick).
		Float64("min_size", res.MinSize).
		Msg("handshake report")
	return res, nil
}

// firstTier is the fee percent of the lowest volume tier.
func firstTier(tiers [][]float64) float64 {
	if len(tiers) == 0 || len(tiers[0]) < 2 {
		return 0
	}
	return tiers[0][1]
}

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

// Package bitshares adapts a BitShares node's websocket API to the gateway
// contract: correlated calls over one connection, a login/subscribe
// handshake, and an aggregated book rebuilt from market notices.
package bitshares

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"venuegw/internal/cache"
	"venuegw/internal/config"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/transport/ws"
)

const Name = "bitshares"

// marketTag identifies market notices on the shared connection.
const marketTag uint64 = 1

// market_fee_percent is expressed in hundredths of a percent.
const feePercentUnit = 10000.0

type Gateway struct {
	cfg    config.Config
	pub    common.Publisher
	logger log.Logger
	ids    *identities
	rpc    *rpcClient
	seq    *sequencer

	// sess belongs to the network goroutine.
	sess *session

	mu     sync.Mutex
	client *ws.Client
}

func New(cfg config.Config, pub common.Publisher, store cache.Store, logger log.Logger) *Gateway {
	if pub == nil {
		pub = common.NopPublisher{}
	}
	logger = log.Component(logger, Name)
	gw := cfg.Gateway
	ids := newIdentities(cache.Key(Name, gw.Base, gw.Quote), store, logger)
	return &Gateway{
		cfg:    cfg,
		pub:    pub,
		logger: logger,
		ids:    ids,
		rpc:    newRPCClient(gw.HTTPURL),
		seq: &sequencer{
			user:     gw.APIKey,
			password: gw.Passphrase,
			base:     gw.Base,
			quote:    gw.Quote,
			tag:      marketTag,
			ids:      ids,
		},
	}
}

func (g *Gateway) Name() string { return Name }

// Handshake resolves chain and instrument identities over the one-shot
// transport and derives fees and increments from them. With useCache a
// previously resolved pair is reused without any round-trip.
func (g *Gateway) Handshake(ctx context.Context, useCache bool) (common.HandshakeResult, error) {
	start := time.Now()
	defer func() { metrics.BootstrapLatencyMs.Observe(float64(time.Since(start).Milliseconds())) }()

	cached := false
	if useCache {
		cached = g.ids.restore()
	} else {
		g.ids.forget()
	}
	pair, ok := g.ids.get()
	if !ok {
		var err error
		if pair, err = g.bootstrap(ctx); err != nil {
			return common.HandshakeResult{}, err
		}
		g.ids.put(pair)
	}

	res := g.result(pair)
	if res.MinTick <= 0 || res.MinSize <= 0 {
		return res, fmt.Errorf("unable to derive increments for %s/%s", g.cfg.Gateway.Base, g.cfg.Gateway.Quote)
	}
	g.logger.Info().
		Str("chain_id", pair.ChainID).
		Str("base", pair.Base.Symbol+"="+pair.Base.ID).
		Str("quote", pair.Quote.Symbol+"="+pair.Quote.ID).
		Float64("maker_fee", res.MakerFee).
		Float64("taker_fee", res.TakerFee).
		Float64("min_tick", res.MinTick).
		Float64("min_size", res.MinSize).
		Bool("cached", cached).
		Msg("handshake report")
	return res, nil
}

func (g *Gateway) bootstrap(ctx context.Context) (cache.Pair, error) {
	var chainID string
	if err := g.rpc.call(ctx, "database", "get_chain_id", nil, &chainID); err != nil {
		return cache.Pair{}, err
	}
	var raw json.RawMessage
	if err := g.rpc.call(ctx, "database", "lookup_asset_symbols", []any{[]string{g.cfg.Gateway.Base, g.cfg.Gateway.Quote}}, &raw); err != nil {
		return cache.Pair{}, err
	}
	pair, err := decodePair(raw, g.cfg.Gateway.Base, g.cfg.Gateway.Quote)
	if err != nil {
		return cache.Pair{}, err
	}
	pair.ChainID = chainID
	return pair, nil
}

func (g *Gateway) result(pair cache.Pair) common.HandshakeResult {
	fee := float64(max(pair.Base.MarketFeePercent, pair.Quote.MarketFeePercent)) / feePercentUnit
	res := common.HandshakeResult{
		MakerFee: fee,
		TakerFee: fee,
		MinTick:  math.Pow10(-pair.Quote.Precision),
		MinSize:  math.Pow10(-pair.Base.Precision),
	}
	if g.cfg.Gateway.MakerFeePct != 0 {
		res.MakerFee = g.cfg.Gateway.MakerFeePct / 1e2
	}
	if g.cfg.Gateway.TakerFeePct != 0 {
		res.TakerFee = g.cfg.Gateway.TakerFeePct / 1e2
	}
	return res
}

// Ready wires the push transport and starts it in the background. The
// websocket handshake completes later, once the connection is live.
func (g *Gateway) Ready(ctx context.Context) bool {
	if g.cfg.Gateway.WSURL == "" {
		g.logger.Error().Msg("no websocket url configured")
		return false
	}
	var h ws.Handler = g
	if g.cfg.Gateway.Debug {
		h = newDebugHandler(h, g.logger)
	}
	client := ws.New(Name, g.cfg.Gateway.WSURL, h, g.logger)
	n := g.cfg.Network
	if n.WSKeepAliveSeconds > 0 {
		client.PingInterval = time.Duration(n.WSKeepAliveSeconds) * time.Second
	}
	if n.ReadTimeoutSeconds > 0 {
		client.ReadTimeout = time.Duration(n.ReadTimeoutSeconds) * time.Second
	}
	if n.ReconnectMinMillis > 0 {
		client.MinBackoff = time.Duration(n.ReconnectMinMillis) * time.Millisecond
	}
	if n.ReconnectMaxSeconds > 0 {
		client.MaxBackoff = time.Duration(n.ReconnectMaxSeconds) * time.Second
	}

	g.mu.Lock()
	g.client = client
	g.mu.Unlock()
	go func() {
		if err := client.Run(ctx); err != nil {
			g.logger.Error().Err(err).Msg("push transport stopped")
		}
	}()
	return true
}

// OnConnect starts a fresh session; whatever the previous connection left
// behind is already gone.
func (g *Gateway) OnConnect(c ws.Conn) {
	g.sess = newSession(g, c)
	g.sess.begin()
}

func (g *Gateway) OnMessage(c ws.Conn, data []byte) {
	if g.sess == nil {
		return
	}
	g.sess.handle(data)
}

func (g *Gateway) OnDisconnect(err error) {
	if g.sess != nil && g.sess.market != nil {
		metrics.BookRebuildsTotal.WithLabelValues(Name, "reconnect").Inc()
	}
	if g.sess != nil && g.sess.calls.len() > 0 {
		g.logger.Debug().Int("abandoned", g.sess.calls.len()).Msg("pending calls dropped")
	}
	g.sess = nil
	metrics.PendingCalls.WithLabelValues(Name).Set(0)
	metrics.Connectivity.WithLabelValues(Name).Set(0)
	g.logger.Warn().Err(err).Msg("disconnected")
	g.pub.PublishConnectivity(common.Disconnected)
}

// Order entry is not supported on this venue; empty results mean unsupported.

func (g *Gateway) Place(ctx context.Context, ord common.Order) []common.OrderUpdate { return nil }
func (g *Gateway) Cancel(ctx context.Context, orderID, nativeID string) []common.OrderUpdate { return nil }
func (g *Gateway) Replace(ctx context.Context, nativeID, price string) []common.OrderUpdate { return nil }
func (g *Gateway) CancelAll(ctx context.Context) []common.OrderUpdate { return nil }

// Close disconnects without waiting for a reconnect.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

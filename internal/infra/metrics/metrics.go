package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	BootstrapLatencyMs = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "bootstrap_latency_ms", Help: "One-shot handshake latency", Buckets: prometheus.LinearBuckets(10, 50, 20)})
	HandshakeLatencyMs = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ws_handshake_latency_ms", Help: "Connect to Connected latency", Buckets: prometheus.LinearBuckets(1, 10, 20)})
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_frames_total", Help: "Inbound frames by exchange and kind"}, []string{"exchange", "kind"})
	CallsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_calls_sent_total", Help: "Outgoing correlated calls by exchange and method"}, []string{"exchange", "method"})
	PendingCalls = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ws_pending_calls", Help: "Outstanding correlated calls"}, []string{"exchange"})
	ProtocolErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "protocol_errors_total", Help: "Protocol errors by exchange and kind"}, []string{"exchange", "kind"})
	APIErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "api_errors_total", Help: "API errors by exchange and endpoint"}, []string{"exchange", "endpoint"})
	Connectivity = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "gateway_connected", Help: "1 when the gateway handshake completed"}, []string{"exchange"})
	WSReconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ws_reconnects_total", Help: "WS reconnects by exchange and reason"}, []string{"exchange", "reason"})
	BookLevels = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_levels", Help: "Aggregated price levels by side"}, []string{"exchange", "side"})
	BookSnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "book_snapshots_total", Help: "Published book snapshots"}, []string{"exchange"})
	BookRebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "book_rebuilds_total", Help: "Orderbook resets by exchange and reason"}, []string{"exchange", "reason"})
	BestBid = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_best_bid", Help: "Highest bid price"}, []string{"exchange"})
	BestAsk = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_best_ask", Help: "Lowest ask price"}, []string{"exchange"})
	SinkErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sink_errors_total", Help: "Publish sink failures"}, []string{"sink"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		BootstrapLatencyMs, HandshakeLatencyMs,
		FramesTotal, CallsSentTotal, PendingCalls, ProtocolErrorsTotal, APIErrorsTotal,
		Connectivity, WSReconnectsTotal,
		BookLevels, BookSnapshotsTotal, BookRebuildsTotal, BestBid, BestAsk,
		SinkErrorsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister { _ = reg.Register(c) }
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

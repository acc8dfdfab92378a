// Package rest serves the admin HTTP surface: health checks, metrics, version and
// read-only views of the venue connection and book.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"venuegw/internal/config"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/health"
	"venuegw/internal/infra/http/middleware"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/infra/netutil"
	"venuegw/internal/infra/network"
	"venuegw/internal/infra/version"
	"venuegw/internal/sink"
	"venuegw/internal/slippage"
)

type Server struct {
	mux    *http.ServeMux
	latest *sink.Latest
	logger log.Logger
	limit  *network.TokenBucket

	mu        sync.RWMutex
	handshake *common.HandshakeResult
}

func New(cfg config.Config, reg *prometheus.Registry, latest *sink.Latest, logger log.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		latest: latest,
		logger: logger,
		limit:  network.NewTokenBucket(20, 10),
	}
	admin, invalid := netutil.ParseCIDRs(cfg.Server.AdminAllowCIDRs)
	if len(invalid) > 0 {
		logger.Warn().Strs("entries", invalid).Msg("ignoring invalid admin allowlist entries")
	}
	s.mux.Handle("/metrics", middleware.AdminGate(admin, metrics.Handler(reg)))
	s.mux.HandleFunc("/healthz", health.Healthz)
	s.mux.HandleFunc("/readyz", health.Readyz)
	s.mux.HandleFunc("/version", version.Handler)
	s.mux.HandleFunc("/status", s.status)
	s.mux.HandleFunc("/book", s.book)
	s.mux.HandleFunc("/quote", s.quote)
	if cfg.Server.Pprof {
		s.mux.Handle("/debug/pprof/", middleware.AdminGate(admin, http.HandlerFunc(pprof.Index)))
		s.mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(admin, http.HandlerFunc(pprof.Cmdline)))
		s.mux.Handle("/debug/pprof/profile", middleware.AdminGate(admin, http.HandlerFunc(pprof.Profile)))
		s.mux.Handle("/debug/pprof/symbol", middleware.AdminGate(admin, http.HandlerFunc(pprof.Symbol)))
		s.mux.Handle("/debug/pprof/trace", middleware.AdminGate(admin, http.HandlerFunc(pprof.Trace)))
	}
	return s
}

// Handler wraps the mux with request ids and access logging.
func (s *Server) Handler() http.Handler {
	return middleware.RequestID(middleware.Logger(s.logger)(s.mux))
}

// SetHandshake records the bootstrap result shown by /status.
func (s *Server) SetHandshake(r common.HandshakeResult) {
	s.mu.Lock()
	s.handshake = &r
	s.mu.Unlock()
}

type statusResponse struct {
	sink.Status
	Handshake *common.HandshakeResult `json:"handshake,omitempty"`
	Version   version.Info            `json:"version"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hs := s.handshake
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, statusResponse{Status: s.latest.Status(), Handshake: hs, Version: version.Get()})
}

// book serves the last snapshot; ?depth=N keeps the N levels per side
// nearest the spread.
func (s *Server) book(w http.ResponseWriter, r *http.Request) {
	if !s.limit.Allow(time.Now()) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	depth := 0
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad depth", http.StatusBadRequest)
			return
		}
		depth = n
	}
	writeJSON(w, http.StatusOK, s.latest.Book(depth))
}

// quote estimates the fill of ?side=buy|sell&qty=Q against the last book.
func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	if !s.limit.Allow(time.Now()) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	q := r.URL.Query()
	side := q.Get("side")
	if side != "buy" && side != "sell" {
		http.Error(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	qty, err := strconv.ParseFloat(q.Get("qty"), 64)
	if err != nil || qty <= 0 {
		http.Error(w, "bad qty", http.StatusBadRequest)
		return
	}
	est, err := slippage.Walk(s.latest.Book(0), qty, side == "buy")
	if errors.Is(err, slippage.ErrInsufficientDepth) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package bitshares

import (
	"encoding/json"
	"time"

	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/transport/ws"
)

type pushHandler struct {
	name string
	fn   func(items []json.RawMessage)
}

// session is the state of one live connection: pending calls, handshake
// progress and the book. It is discarded as a whole when the connection
// drops; nothing in it survives a reconnect.
type session struct {
	gw      *Gateway
	conn    ws.Conn
	calls   *pendingCalls
	state   handshake
	market  *market
	push    map[uint64]pushHandler
	started time.Time
	logger  log.Logger
}

func newSession(gw *Gateway, conn ws.Conn) *session {
	s := &session{
		gw:      gw,
		conn:    conn,
		calls:   newPendingCalls(),
		push:    make(map[uint64]pushHandler),
		started: time.Now(),
		logger:  gw.logger,
	}
	s.push[gw.seq.tag] = pushHandler{name: "market", fn: s.onMarket}
	return s
}

func (s *session) begin() {
	var first call
	s.state, first = s.gw.seq.begin()
	s.issue(first)
}

func (s *session) issue(c call) {
	id := s.calls.submit(s.advance)
	b, err := encodeCall(id, c.api, c.method, c.args)
	if err == nil {
		err = s.conn.Send(b)
	}
	if err != nil {
		s.calls.drop(id)
		s.fail(err)
		return
	}
	metrics.CallsSentTotal.WithLabelValues(s.gw.Name(), c.method).Inc()
	metrics.PendingCalls.WithLabelValues(s.gw.Name()).Set(float64(s.calls.len()))
	s.logger.Debug().Uint64("id", id).Str("method", c.method).Int64("api", c.api).Msg("call sent")
}

// advance is the continuation of every handshake call.
func (s *session) advance(r reply) {
	var next *call
	s.state, next = s.gw.seq.next(s.state, r)
	switch s.state.stage {
	case stageFailed:
		s.fail(s.state.reason)
		return
	case stageAwaitSubscribe:
		if s.market == nil {
			s.market = newMarket(s.state.pair)
		}
	case stageConnected:
		metrics.HandshakeLatencyMs.Observe(float64(time.Since(s.started).Milliseconds()))
		metrics.Connectivity.WithLabelValues(s.gw.Name()).Set(1)
		s.logger.Info().
			Int64("db_api", s.state.dbAPI).
			Str("base", s.state.pair.Base.ID).
			Str("quote", s.state.pair.Quote.ID).
			Msg("handshake complete")
		s.gw.pub.PublishConnectivity(common.Connected)
	}
	if next != nil {
		s.issue(*next)
	}
}

func (s *session) fail(err error) {
	metrics.ProtocolErrorsTotal.WithLabelValues(s.gw.Name(), "handshake").Inc()
	metrics.Connectivity.WithLabelValues(s.gw.Name()).Set(0)
	s.logger.Error().Err(err).Str("stage", s.state.stage.String()).Msg("handshake aborted")
	s.state.stage = stageFailed
	s.state.reason = err
	s.gw.pub.PublishConnectivity(common.Disconnected)
}

// handle decodes one inbound frame and routes it. Nothing here returns an
// error: bad frames are logged and the connection stays up.
func (s *session) handle(raw []byte) {
	f, kind, err := decodeFrame(raw)
	metrics.FramesTotal.WithLabelValues(s.gw.Name(), kind.String()).Inc()
	if err != nil {
		metrics.ProtocolErrorsTotal.WithLabelValues(s.gw.Name(), "malformed").Inc()
		s.logger.Warn().Err(err).Bytes("frame", raw).Msg("dropping frame")
		return
	}
	switch kind {
	case frameReply:
		if err := s.calls.resolve(*f.ID, f.reply()); err != nil {
			metrics.ProtocolErrorsTotal.WithLabelValues(s.gw.Name(), "unknown_id").Inc()
			s.logger.Warn().Err(err).Msg("reply dropped")
		}
		metrics.PendingCalls.WithLabelValues(s.gw.Name()).Set(float64(s.calls.len()))
	case frameNotice:
		tag, items, err := f.notice()
		if err != nil {
			metrics.ProtocolErrorsTotal.WithLabelValues(s.gw.Name(), "malformed").Inc()
			s.logger.Warn().Err(err).Bytes("frame", raw).Msg("dropping notice")
			return
		}
		h, ok := s.push[tag]
		if !ok {
			s.logger.Info().Uint64("tag", tag).Bytes("frame", raw).Msg("unhandled notice")
			return
		}
		h.fn(items)
	default:
		s.logger.Info().Bytes("frame", raw).Msg("unhandled frame")
	}
}

// onMarket applies a whole notice list and publishes a single snapshot.
func (s *session) onMarket(items []json.RawMessage) {
	if s.market == nil {
		s.logger.Warn().Int("items", len(items)).Msg("market notice before subscription")
		return
	}
	n := s.market.apply(items)
	metrics.BookSnapshotsTotal.WithLabelValues(s.gw.Name()).Inc()
	bids, asks := s.market.book.Depth()
	s.logger.Debug().
		Int("items", len(items)).
		Int("applied", n).
		Int("orders", s.market.book.Orders()).
		Int("bids", bids).
		Int("asks", asks).
		Msg("market notice")
	s.gw.pub.PublishBook(s.market.snapshot())
}

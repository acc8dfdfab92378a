package bitshares

import (
	"encoding/json"
	"errors"
	"fmt"

	"venuegw/internal/cache"
)

var (
	errLoginRejected   = errors.New("login rejected")
	errUnexpectedReply = errors.New("reply after handshake ended")
)

type stage int

const (
	stageAwaitLogin stage = iota
	stageAwaitAPI
	stageAwaitSymbols
	stageAwaitSubscribe
	stageConnected
	stageFailed
)

func (s stage) String() string {
	switch s {
	case stageAwaitLogin:
		return "await_login"
	case stageAwaitAPI:
		return "await_api"
	case stageAwaitSymbols:
		return "await_symbols"
	case stageAwaitSubscribe:
		return "await_subscribe"
	case stageConnected:
		return "connected"
	default:
		return "failed"
	}
}

// call is one outgoing request of the handshake.
type call struct {
	api    int64
	method string
	args   []any
}

// handshake is the sequencer state. reason is set only in stageFailed.
type handshake struct {
	stage  stage
	dbAPI  int64
	pair   cache.Pair
	reason error
}

func failed(h handshake, err error) (handshake, *call) {
	h.stage = stageFailed
	h.reason = err
	return h, nil
}

// sequencer drives login -> database api -> symbol lookup -> market
// subscription. It holds no per-connection state; every connection starts
// again from begin().
type sequencer struct {
	user, password string
	base, quote    string
	tag            uint64
	ids            *identities
}

func (sq *sequencer) begin() (handshake, call) {
	return handshake{stage: stageAwaitLogin}, call{api: loginAPI, method: "login", args: []any{sq.user, sq.password}}
}

// next applies the reply to the call issued from h and returns the new state
// plus the following call, if any.
func (sq *sequencer) next(h handshake, r reply) (handshake, *call) {
	if r.Err != nil {
		return failed(h, fmt.Errorf("%s: %w", h.stage, r.Err))
	}
	switch h.stage {
	case stageAwaitLogin:
		var ok bool
		if err := json.Unmarshal(r.Result, &ok); err != nil || !ok {
			return failed(h, fmt.Errorf("%w: %s", errLoginRejected, r.Result))
		}
		h.stage = stageAwaitAPI
		return h, &call{api: loginAPI, method: "database"}

	case stageAwaitAPI:
		if err := json.Unmarshal(r.Result, &h.dbAPI); err != nil {
			return failed(h, fmt.Errorf("database api id: %w", err))
		}
		h.stage = stageAwaitSymbols
		if pair, ok := sq.ids.get(); ok {
			h.pair = pair
			return sq.next(h, reply{})
		}
		return h, &call{api: h.dbAPI, method: "lookup_asset_symbols", args: []any{[]string{sq.base, sq.quote}}}

	case stageAwaitSymbols:
		if !r.skipped() {
			pair, err := decodePair(r.Result, sq.base, sq.quote)
			if err != nil {
				return failed(h, err)
			}
			if cached, ok := sq.ids.get(); ok {
				pair.ChainID = cached.ChainID
			}
			sq.ids.put(pair)
			h.pair = pair
		}
		h.stage = stageAwaitSubscribe
		return h, &call{api: h.dbAPI, method: "subscribe_to_market", args: []any{sq.tag, h.pair.Base.ID, h.pair.Quote.ID}}

	case stageAwaitSubscribe:
		h.stage = stageConnected
		return h, nil
	}
	return failed(h, fmt.Errorf("%w in stage %s", errUnexpectedReply, h.stage))
}

// decodePair reads a lookup_asset_symbols result; a null entry means the
// symbol is unknown to the venue.
func decodePair(raw json.RawMessage, base, quote string) (cache.Pair, error) {
	var assets []*assetObject
	if err := json.Unmarshal(raw, &assets); err != nil {
		return cache.Pair{}, fmt.Errorf("asset lookup: %w", err)
	}
	if len(assets) != 2 {
		return cache.Pair{}, fmt.Errorf("asset lookup: want 2 assets, got %d", len(assets))
	}
	for i, sym := range []string{base, quote} {
		if assets[i] == nil {
			return cache.Pair{}, fmt.Errorf("%w: %s", ErrInstrumentNotFound, sym)
		}
	}
	return cache.Pair{Base: assets[0].asset(), Quote: assets[1].asset()}, nil
}

package bitshares

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"venuegw/internal/cache"
	"venuegw/internal/config"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
)

type recorder struct {
	mu    sync.Mutex
	conn  []common.Connectivity
	books []common.BookSnapshot
}

func (r *recorder) PublishConnectivity(c common.Connectivity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = append(r.conn, c)
}

func (r *recorder) PublishBook(b common.BookSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append(r.books, b)
}

func (r *recorder) PublishOrder(common.OrderUpdate)   {}
func (r *recorder) PublishTrade(common.TradeUpdate)   {}
func (r *recorder) PublishWallet(common.WalletUpdate) {}

func (r *recorder) connectivity() []common.Connectivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.Connectivity(nil), r.conn...)
}

func (r *recorder) snapshots() []common.BookSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.BookSnapshot(nil), r.books...)
}

// fakeConn captures outgoing frames.
type fakeConn struct {
	mu   sync.Mutex
	sent []callEnvelope
	err  error
}

func (c *fakeConn) Send(b []byte) error {
	if c.err != nil {
		return c.err
	}
	var env struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	params := make([]any, len(env.Params))
	for i, p := range env.Params {
		params[i] = p
	}
	c.mu.Lock()
	c.sent = append(c.sent, callEnvelope{ID: env.ID, Method: env.Method, Params: params})
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) calls() []callEnvelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]callEnvelope(nil), c.sent...)
}

// remoteMethod is the venue method named in params[1].
func remoteMethod(t *testing.T, env callEnvelope) string {
	t.Helper()
	require.Len(t, env.Params, 3)
	var m string
	require.NoError(t, json.Unmarshal(env.Params[1].(json.RawMessage), &m))
	return m
}

const assetsJSON = `[
 {"id":"1.3.0","symbol":"BTS","precision":5,"options":{"market_fee_percent":0}},
 {"id":"1.3.121","symbol":"USD","precision":2,"options":{"market_fee_percent":20}}
]`

func testPair() cache.Pair {
	return cache.Pair{
		ChainID: "4018d784",
		Base:    cache.Asset{ID: "1.3.0", Symbol: "BTS", Precision: 5},
		Quote:   cache.Asset{ID: "1.3.121", Symbol: "USD", Precision: 2, MarketFeePercent: 20},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Gateway.Exchange = Name
	cfg.Gateway.Base = "BTS"
	cfg.Gateway.Quote = "USD"
	cfg.Gateway.APIKey = "user"
	cfg.Gateway.Passphrase = "secret"
	return cfg
}

func newTestGateway(cfg config.Config, pub common.Publisher, store cache.Store) *Gateway {
	return New(cfg, pub, store, log.Nop())
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuegw/internal/cache"
	"venuegw/internal/config"
	"venuegw/internal/infra/log"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Cache.Path = t.TempDir()
	cfg.Gateway.Exchange = "bitshares"
	cfg.Gateway.Base = "BTS"
	cfg.Gateway.Quote = "USD"
	cfg.Gateway.WSURL = ""
	cfg.Gateway.BootstrapTimeoutSeconds = 1
	return cfg
}

// reopen fails while another handle still holds the pebble lock.
func reopen(t *testing.T, path string) *cache.Disk {
	t.Helper()
	disk, err := cache.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = disk.Close() })
	return disk
}

func TestRunUnknownExchangeReleasesStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gateway.Exchange = "nowhere"

	err := run(context.Background(), cfg, log.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exchange")
	reopen(t, cfg.Cache.Path)
}

func TestRunHandshakeFailureReleasesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	cfg := testConfig(t)
	cfg.Gateway.HTTPURL = srv.URL

	err := run(context.Background(), cfg, log.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handshake")
	reopen(t, cfg.Cache.Path)
}

func TestRunPersistsIdentitiesAndStopsOnCancel(t *testing.T) {
	looked := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Params) < 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var method string
		_ = json.Unmarshal(req.Params[1], &method)
		var result string
		switch method {
		case "get_chain_id":
			result = `"4018d784"`
		case "lookup_asset_symbols":
			result = `[{"id":"1.3.0","symbol":"BTS","precision":5,"options":{"market_fee_percent":0}},` +
				`{"id":"1.3.121","symbol":"USD","precision":4,"options":{"market_fee_percent":20}}]`
			select {
			case looked <- struct{}{}:
			default:
			}
		default:
			result = "null"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": req.ID, "result": json.RawMessage(result)})
	}))
	t.Cleanup(srv.Close)
	cfg := testConfig(t)
	cfg.Gateway.HTTPURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, log.Nop()) }()

	select {
	case <-looked:
	case <-time.After(10 * time.Second):
		t.Fatal("asset lookup never reached the venue")
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	pair, err := reopen(t, cfg.Cache.Path).Load(cache.Key("bitshares", "BTS", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "4018d784", pair.ChainID)
	assert.Equal(t, "1.3.121", pair.Quote.ID)
}

package kraken

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"venuegw/internal/config"
	"venuegw/internal/infra/log"
)

func server(t *testing.T, body string) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0/public/AssetPairs" || r.URL.Query().Get("pair") != "XBTUSD" {
			_, _ = w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func cfgFor(url, base string) config.Config {
	cfg := config.Default()
	cfg.Gateway.Base = base
	cfg.Gateway.Quote = "USD"
	cfg.Exchanges.Kraken.BaseURL = url
	return cfg
}

func TestHandshake(t *testing.T) {
	url := server(t, `{"error":[],"result":{"XXBTZUSD":{"altname":"XBTUSD","pair_decimals":1,"lot_decimals":8,"ordermin":"0.0001","tick_size":"0.1","fees":[[0,0.4],[10000,0.35]],"fees_maker":[[0,0.25]]}}}`)
	res, err := New(cfgFor(url, "BTC"), nil, log.Nop()).Handshake(context.Background(), true)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if res.MinTick != 0.1 || res.MinSize != 0.0001 {
		t.Fatalf("unexpected increments: %+v", res)
	}
	if math.Abs(res.TakerFee-0.004) > 1e-12 || math.Abs(res.MakerFee-0.0025) > 1e-12 {
		t.Fatalf("unexpected fees: %+v", res)
	}
}

func TestHandshakeWithoutOrderMinUsesLotStep(t *testing.T) {
	url := server(t, `{"error":[],"result":{"XXBTZUSD":{"altname":"XBTUSD","pair_decimals":1,"lot_decimals":8}}}`)
	res, err := New(cfgFor(url, "BTC"), nil, log.Nop()).Handshake(context.Background(), false)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if res.MinSize != 1e-8 || res.MinTick != 0.1 {
		t.Fatalf("unexpected increments: %+v", res)
	}
}

func TestHandshakeUnknownPair(t *testing.T) {
	url := server(t, `{}`)
	if _, err := New(cfgFor(url, "DOGE"), nil, log.Nop()).Handshake(context.Background(), false); err == nil {
		t.Fatal("expected error for unknown pair")
	}
}

func TestMapSymbol(t *testing.T) {
	if mapSymbol("btc") != "XBT" || mapSymbol("eth") != "ETH" {
		t.Fatal("unexpected symbol mapping")
	}
}

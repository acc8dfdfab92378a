package config

import (
    "os"
    "path/filepath"
    "testing"
)

func TestDefaultConfig(t *testing.T) {
    _ = os.Unsetenv("VENUEGW_CONFIG")
    _ = os.Unsetenv("VENUEGW_EXCHANGE")
    _ = os.Unsetenv("VENUEGW_LOG_LEVEL")

    c := Load()
    if c.Gateway.Exchange != "bitshares" {
        t.Fatalf("expected default exchange bitshares, got %s", c.Gateway.Exchange)
    }
    if c.Logging.Level != "info" {
        t.Fatalf("expected default log level info, got %s", c.Logging.Level)
    }
    if c.Gateway.BootstrapTimeoutSeconds != 10 {
        t.Fatalf("expected default bootstrap timeout 10, got %d", c.Gateway.BootstrapTimeoutSeconds)
    }
}

func TestEnvOverrides(t *testing.T) {
    t.Setenv("VENUEGW_EXCHANGE", "BINANCE")
    t.Setenv("VENUEGW_BASE", "btc")
    t.Setenv("VENUEGW_LOG_LEVEL", "debug")
    t.Setenv("VENUEGW_KAFKA_BROKERS", "k1:9092,k2:9092")
    t.Setenv("VENUEGW_TAKER_FEE_PCT", "0.2")
    c := Load()
    if c.Gateway.Exchange != "binance" {
        t.Fatalf("env override failed for exchange, got %s", c.Gateway.Exchange)
    }
    if c.Gateway.Base != "BTC" {
        t.Fatalf("env override failed for base, got %s", c.Gateway.Base)
    }
    if c.Logging.Level != "debug" {
        t.Fatalf("env override failed for log level, got %s", c.Logging.Level)
    }
    if len(c.Sink.Kafka.Brokers) != 2 || c.Sink.Kafka.Brokers[1] != "k2:9092" {
        t.Fatalf("env override failed for kafka brokers, got %v", c.Sink.Kafka.Brokers)
    }
    if c.Gateway.TakerFeePct != 0.2 {
        t.Fatalf("env override failed for taker fee, got %v", c.Gateway.TakerFeePct)
    }
}

func TestYAMLFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "gw.yaml")
    body := "gateway:\n  quote: CNY\n  nocache: true\ncache:\n  path: /tmp/ids\n"
    if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
        t.Fatalf("write config: %v", err)
    }
    t.Setenv("VENUEGW_CONFIG", path)
    c := Load()
    if c.Gateway.Quote != "CNY" || !c.Gateway.NoCache {
        t.Fatalf("yaml gateway section not applied: %+v", c.Gateway)
    }
    if c.Gateway.Base != "BTS" {
        t.Fatalf("yaml should keep unset defaults, got base %s", c.Gateway.Base)
    }
    if c.Cache.Path != "/tmp/ids" {
        t.Fatalf("yaml cache path not applied, got %q", c.Cache.Path)
    }
}

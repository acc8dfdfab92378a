package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Network struct {
		WSKeepAliveSeconds  int `yaml:"ws_keepalive_seconds"`
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		ReconnectMinMillis  int `yaml:"reconnect_min_ms"`
		ReconnectMaxSeconds int `yaml:"reconnect_max_seconds"`
	} `yaml:"network"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Gateway Gateway `yaml:"gateway"`
	Cache   struct {
		// Path of the on-disk identity store; empty keeps identities in memory only.
		Path string `yaml:"path"`
	} `yaml:"cache"`
	Sink struct {
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"sink"`
	Exchanges struct {
		Binance struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
			Secret  string `yaml:"secret"`
		} `yaml:"binance"`
		Kraken struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"kraken"`
	} `yaml:"exchanges"`
}

// Gateway holds the venue selection and the credentials used by the handshake.
type Gateway struct {
	Exchange                string  `yaml:"exchange"`
	Base                    string  `yaml:"base"`
	Quote                   string  `yaml:"quote"`
	HTTPURL                 string  `yaml:"http_url"`
	WSURL                   string  `yaml:"ws_url"`
	APIKey                  string  `yaml:"apikey"`
	Secret                  string  `yaml:"secret"`
	Passphrase              string  `yaml:"passphrase"`
	MakerFeePct             float64 `yaml:"maker_fee_pct"`
	TakerFeePct             float64 `yaml:"taker_fee_pct"`
	BootstrapTimeoutSeconds int     `yaml:"bootstrap_timeout_seconds"`
	NoCache                 bool    `yaml:"nocache"`
	Debug                   bool    `yaml:"debug"`
}

func defaultConfig() Config {
	var c Config
	c.Network.WSKeepAliveSeconds = 15
	c.Network.ReadTimeoutSeconds = 60
	c.Network.ReconnectMinMillis = 500
	c.Network.ReconnectMaxSeconds = 30
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Gateway.Exchange = "bitshares"
	c.Gateway.Base = "BTS"
	c.Gateway.Quote = "USD"
	c.Gateway.HTTPURL = "http://127.0.0.1:8090/rpc"
	c.Gateway.WSURL = "ws://127.0.0.1:8090/ws"
	c.Gateway.BootstrapTimeoutSeconds = 10
	c.Sink.Kafka.Topic = "venuegw.events"
	c.Exchanges.Binance.BaseURL = "https://api.binance.com"
	c.Exchanges.Kraken.BaseURL = "https://api.kraken.com"
	return c
}

// Default returns the built-in configuration without consulting the environment.
func Default() Config { return defaultConfig() }

func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("VENUEGW_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("VENUEGW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VENUEGW_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VENUEGW_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("VENUEGW_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("VENUEGW_EXCHANGE"); v != "" {
		c.Gateway.Exchange = strings.ToLower(v)
	}
	if v := os.Getenv("VENUEGW_BASE"); v != "" {
		c.Gateway.Base = strings.ToUpper(v)
	}
	if v := os.Getenv("VENUEGW_QUOTE"); v != "" {
		c.Gateway.Quote = strings.ToUpper(v)
	}
	if v := os.Getenv("VENUEGW_HTTP_URL"); v != "" {
		c.Gateway.HTTPURL = v
	}
	if v := os.Getenv("VENUEGW_WS_URL"); v != "" {
		c.Gateway.WSURL = v
	}
	if v := os.Getenv("VENUEGW_NOCACHE"); v == "1" || v == "true" {
		c.Gateway.NoCache = true
	}
	if v := os.Getenv("VENUEGW_DEBUG"); v == "1" || v == "true" {
		c.Gateway.Debug = true
	}
	if v := os.Getenv("VENUEGW_MAKER_FEE_PCT"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f != 0 {
			c.Gateway.MakerFeePct = f
		}
	}
	if v := os.Getenv("VENUEGW_TAKER_FEE_PCT"); v != "" {
		var f float64
		_, _ = fmt.Sscan(v, &f)
		if f != 0 {
			c.Gateway.TakerFeePct = f
		}
	}
	if v := os.Getenv("VENUEGW_BOOTSTRAP_TIMEOUT_SECONDS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Gateway.BootstrapTimeoutSeconds = n
		}
	}
	if v := os.Getenv("VENUEGW_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("VENUEGW_KAFKA_BROKERS"); v != "" {
		c.Sink.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("VENUEGW_KAFKA_TOPIC"); v != "" {
		c.Sink.Kafka.Topic = v
	}
	// credentials only from env
	if v := os.Getenv("VENUEGW_APIKEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("VENUEGW_SECRET"); v != "" {
		c.Gateway.Secret = v
	}
	if v := os.Getenv("VENUEGW_PASSPHRASE"); v != "" {
		c.Gateway.Passphrase = v
	}
	if v := os.Getenv("VENUEGW_BINANCE_API_KEY"); v != "" {
		c.Exchanges.Binance.APIKey = v
	}
	if v := os.Getenv("VENUEGW_BINANCE_SECRET"); v != "" {
		c.Exchanges.Binance.Secret = v
	}
	if v := os.Getenv("VENUEGW_BINANCE_BASE_URL"); v != "" {
		c.Exchanges.Binance.BaseURL = v
	}
	if v := os.Getenv("VENUEGW_KRAKEN_BASE_URL"); v != "" {
		c.Exchanges.Kraken.BaseURL = v
	}
	return c
}

func splitCSV(s string) []string {
	var out []string
	buf := []rune{}
	for _, r := range s {
		if r == ',' {
			if len(buf) > 0 {
				out = append(out, string(buf))
				buf = buf[:0]
			}
			continue
		}
		buf = append(buf, r)
	}
	if len(buf) > 0 {
		out = append(out, string(buf))
	}
	return out
}

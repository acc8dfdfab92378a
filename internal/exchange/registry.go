// Package exchange maps venue names to gateway constructors.
package exchange

import (
	"fmt"
	"sort"
	"strings"

	"venuegw/internal/cache"
	"venuegw/internal/config"
	"venuegw/internal/exchange/binance"
	"venuegw/internal/exchange/bitshares"
	"venuegw/internal/exchange/common"
	"venuegw/internal/exchange/kraken"
	"venuegw/internal/infra/log"
)

// Deps are the collaborators every gateway receives.
type Deps struct {
	Publisher common.Publisher
	Store     cache.Store
	Logger    log.Logger
}

type Constructor func(cfg config.Config, deps Deps) common.Gateway

var registry = map[string]Constructor{
	bitshares.Name: func(cfg config.Config, d Deps) common.Gateway {
		return bitshares.New(cfg, d.Publisher, d.Store, d.Logger)
	},
	binance.Name: func(cfg config.Config, d Deps) common.Gateway {
		return binance.New(cfg, d.Publisher, d.Logger)
	},
	kraken.Name: func(cfg config.Config, d Deps) common.Gateway {
		return kraken.New(cfg, d.Publisher, d.Logger)
	},
}

// New builds the gateway registered under name; lookup is case-insensitive.
func New(name string, cfg config.Config, deps Deps) (common.Gateway, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown exchange %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(cfg, deps), nil
}

func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

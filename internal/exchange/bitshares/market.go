package bitshares

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"venuegw/internal/cache"
	"venuegw/internal/exchange/common"
	"venuegw/internal/orderbook"
)

type assetAmount struct {
	Amount  decimal.Decimal `json:"amount"`
	AssetID string          `json:"asset_id"`
}

// limitOrder is a venue limit_order_object as pushed by market notices.
type limitOrder struct {
	ID        string          `json:"id"`
	ForSale   decimal.Decimal `json:"for_sale"`
	SellPrice *struct {
		Base  assetAmount `json:"base"`
		Quote assetAmount `json:"quote"`
	} `json:"sell_price"`
}

// market interprets venue orders against the configured pair and feeds the
// aggregated book. It is touched only from the network goroutine.
type market struct {
	book       *orderbook.Book
	pair       cache.Pair
	baseScale  decimal.Decimal
	quoteScale decimal.Decimal
}

func newMarket(pair cache.Pair) *market {
	return &market{
		book:       orderbook.New(),
		pair:       pair,
		baseScale:  scale(pair.Base),
		quoteScale: scale(pair.Quote),
	}
}

// addOrUpdate applies the full current state of venue order id. Direction is
// implied by which instrument sits in the base leg of the sell price: the
// configured base asset means a bid, anything else swaps the legs.
func (m *market) addOrUpdate(id string, forSale, baseLeg, quoteLeg decimal.Decimal, baseLegAsset string) {
	if !baseLeg.IsPositive() || !quoteLeg.IsPositive() {
		m.book.Remove(id)
		return
	}
	var (
		side  orderbook.Side
		price decimal.Decimal
		size  decimal.Decimal
	)
	if baseLegAsset == m.pair.Base.ID {
		side = orderbook.Bid
		price = quoteLeg.Div(m.quoteScale).Div(baseLeg.Div(m.baseScale))
		size = forSale.Div(m.baseScale)
	} else {
		side = orderbook.Ask
		price = baseLeg.Div(m.quoteScale).Div(quoteLeg.Div(m.baseScale))
		size = forSale.Div(m.quoteScale).Div(price)
	}
	m.book.Apply(id, side, price.InexactFloat64(), size.InexactFloat64())
}

func (m *market) remove(id string) {
	m.book.Remove(id)
}

// apply processes one notice list and reports how many items changed the
// book. Items that fail to decode are skipped.
func (m *market) apply(items []json.RawMessage) (applied int) {
	for _, raw := range items {
		switch classifyItem(raw) {
		case itemObject:
			var o limitOrder
			if err := json.Unmarshal(raw, &o); err != nil || o.ID == "" || o.SellPrice == nil {
				continue
			}
			m.addOrUpdate(o.ID, o.ForSale, o.SellPrice.Base.Amount, o.SellPrice.Quote.Amount, o.SellPrice.Base.AssetID)
			applied++
		case itemID:
			var id string
			if err := json.Unmarshal(raw, &id); err != nil {
				continue
			}
			m.remove(id)
			applied++
		}
	}
	return applied
}

func (m *market) snapshot() common.BookSnapshot {
	l2 := m.book.Snapshot()
	out := common.BookSnapshot{
		Bids: make([]common.Level, len(l2.Bids)),
		Asks: make([]common.Level, len(l2.Asks)),
	}
	for i, l := range l2.Bids {
		out.Bids[i] = common.Level{Price: l.Price, Size: l.Qty}
	}
	for i, l := range l2.Asks {
		out.Asks[i] = common.Level{Price: l.Price, Size: l.Qty}
	}
	return out
}

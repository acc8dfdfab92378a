// Package slippage prices a market order against an aggregated book.
package slippage

import (
	"errors"

	"venuegw/internal/exchange/common"
)

var ErrInsufficientDepth = errors.New("insufficient depth")

type Estimate struct {
	Qty      float64 `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
	Worst    float64 `json:"worst_price"`
	Mid      float64 `json:"mid"`
	Bps      float64 `json:"slippage_bps"`
}

// Walk consumes levels from the touch outward until qty is filled. Bids are
// stored ascending, so sells walk them from the end. Bps is measured against
// mid and is zero when one side of the book is empty.
func Walk(book common.BookSnapshot, qty float64, isBuy bool) (Estimate, error) {
	est := Estimate{Qty: qty}
	if qty <= 0 {
		return est, nil
	}
	if len(book.Bids) > 0 && len(book.Asks) > 0 {
		est.Mid = (book.Bids[len(book.Bids)-1].Price + book.Asks[0].Price) / 2
	}

	var cost, filled float64
	take := func(l common.Level) bool {
		use := min(qty-filled, l.Size)
		cost += use * l.Price
		filled += use
		est.Worst = l.Price
		return filled >= qty
	}
	if isBuy {
		for _, l := range book.Asks {
			if take(l) {
				break
			}
		}
	} else {
		for i := len(book.Bids) - 1; i >= 0; i-- {
			if take(book.Bids[i]) {
				break
			}
		}
	}
	if filled < qty {
		return est, ErrInsufficientDepth
	}
	est.AvgPrice = cost / qty
	if est.Mid > 0 {
		diff := est.AvgPrice - est.Mid
		if !isBuy {
			diff = est.Mid - est.AvgPrice
		}
		est.Bps = diff / est.Mid * 10000.0
	}
	return est, nil
}

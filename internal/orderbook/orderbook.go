package orderbook

import "sort"

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

type Level struct{ Price, Qty float64 }

type L2 struct {
	Bids []Level // sorted asc by price
	Asks []Level // sorted asc by price
}

// level is a Level plus the number of live orders resting on it.
type level struct {
	Level
	orders int
}

// search returns the index of price in levels, or the insertion point and false.
func search(levels []level, price float64) (int, bool) {
	i := sort.Search(len(levels), func(i int) bool { return levels[i].Price >= price })
	return i, i < len(levels) && levels[i].Price == price
}

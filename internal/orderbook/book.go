package orderbook

type contribution struct {
	side  Side
	price float64
	qty   float64
}

// Book aggregates per-order contributions into price levels. Many venue
// orders can share one level, so every contribution is indexed by order id
// and reversed before an update or removal is applied. A level lives exactly
// as long as some order contributes to it; float residue left by the
// subtraction never keeps an empty level alive.
//
// Book is not safe for concurrent use; the caller serializes access.
type Book struct {
	bids  []level
	asks  []level
	index map[string]contribution
}

func New() *Book {
	return &Book{index: make(map[string]contribution)}
}

// Apply records the full current state of order id. A prior contribution of
// the same id is reversed first: updates are replacements, not deltas.
// Any positive size is kept, however small.
func (b *Book) Apply(id string, side Side, price, qty float64) {
	b.Remove(id)
	if qty <= 0 || price <= 0 {
		return
	}
	levels := b.side(side)
	i, found := search(*levels, price)
	if found {
		(*levels)[i].Qty += qty
		(*levels)[i].orders++
	} else {
		*levels = append(*levels, level{})
		copy((*levels)[i+1:], (*levels)[i:])
		(*levels)[i] = level{Level: Level{Price: price, Qty: qty}, orders: 1}
	}
	b.index[id] = contribution{side: side, price: price, qty: qty}
}

// Remove reverses the contribution of order id. Unknown ids are a no-op and
// report false.
func (b *Book) Remove(id string) bool {
	c, ok := b.index[id]
	if !ok {
		return false
	}
	delete(b.index, id)
	levels := b.side(c.side)
	i, found := search(*levels, c.price)
	if !found {
		return true
	}
	l := &(*levels)[i]
	l.orders--
	l.Qty -= c.qty
	if l.orders <= 0 {
		*levels = append((*levels)[:i], (*levels)[i+1:]...)
	}
	return true
}

// Snapshot returns a copy that stays valid after further mutations.
func (b *Book) Snapshot() L2 {
	return L2{Bids: export(b.bids), Asks: export(b.asks)}
}

func export(levels []level) []Level {
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = l.Level
	}
	return out
}

// Orders is the number of live contributions.
func (b *Book) Orders() int { return len(b.index) }

// Depth returns the number of bid and ask levels.
func (b *Book) Depth() (bids, asks int) { return len(b.bids), len(b.asks) }

func (b *Book) side(s Side) *[]level {
	if s == Bid {
		return &b.bids
	}
	return &b.asks
}

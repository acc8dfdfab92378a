package common

import "context"

type Connectivity int

const (
	Disconnected Connectivity = iota
	Connected
)

func (c Connectivity) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

type OrderSide string
const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

type OrderType string
const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

type TimeInForce string
const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

type OrderStatus string
const (
	StatusNew        OrderStatus = "new"
	StatusWorking    OrderStatus = "working"
	StatusTerminated OrderStatus = "terminated"
)

type Order struct {
	ID          string // client order ID
	Side        OrderSide
	Price       string
	Qty         string
	Type        OrderType
	TimeInForce TimeInForce
	PostOnly    bool
}

// Level is one aggregated price point of a book snapshot.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BookSnapshot is a point-in-time copy; both sides are sorted ascending by price.
// Consumers must treat it as read-only.
type BookSnapshot struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

type OrderUpdate struct {
	OrderID  string      `json:"order_id"`
	NativeID string      `json:"native_id"`
	Side     OrderSide   `json:"side"`
	Price    float64     `json:"price"`
	Qty      float64     `json:"qty"`
	Status   OrderStatus `json:"status"`
}

type TradeUpdate struct {
	Side  OrderSide `json:"side"`
	Price float64   `json:"price"`
	Qty   float64   `json:"qty"`
	Time  int64     `json:"time"`
}

type WalletUpdate struct {
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`
	Held   float64 `json:"held"`
}

// HandshakeResult carries the trading parameters resolved during bootstrap.
type HandshakeResult struct {
	MakerFee float64 `json:"maker_fee"`
	TakerFee float64 `json:"taker_fee"`
	MinTick  float64 `json:"min_tick"`
	MinSize  float64 `json:"min_size"`
}

// Publisher receives normalized events from a gateway, one call per event.
type Publisher interface {
	PublishConnectivity(Connectivity)
	PublishBook(BookSnapshot)
	PublishOrder(OrderUpdate)
	PublishTrade(TradeUpdate)
	PublishWallet(WalletUpdate)
}

// Gateway is the contract every venue adapter implements.
// Order entry methods return empty results when the venue does not support
// them; callers must read empty as unsupported, not as zero orders.
type Gateway interface {
	Name() string
	Handshake(ctx context.Context, useCache bool) (HandshakeResult, error)
	Ready(ctx context.Context) bool
	Place(ctx context.Context, ord Order) []OrderUpdate
	Cancel(ctx context.Context, orderID, nativeID string) []OrderUpdate
	Replace(ctx context.Context, nativeID, price string) []OrderUpdate
	CancelAll(ctx context.Context) []OrderUpdate
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishConnectivity(Connectivity) {}
func (NopPublisher) PublishBook(BookSnapshot)         {}
func (NopPublisher) PublishOrder(OrderUpdate)         {}
func (NopPublisher) PublishTrade(TradeUpdate)         {}
func (NopPublisher) PublishWallet(WalletUpdate)       {}

package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
)

// Event is the record written to the topic, keyed by exchange.
type Event struct {
	Exchange string    `json:"exchange"`
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
	Data     any       `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON. The writer is asynchronous so a slow
// broker never stalls the network goroutine; failures surface through the
// completion callback.
type Kafka struct {
	exchange string
	writer   messageWriter
	logger   log.Logger
	now      func() time.Time
}

func NewKafka(brokers []string, topic, exchange string, logger log.Logger) *Kafka {
	k := &Kafka{exchange: exchange, logger: log.Component(logger, "kafka"), now: time.Now}
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
		Completion:   k.completed,
	}
	return k
}

func (k *Kafka) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	metrics.SinkErrorsTotal.WithLabelValues("kafka").Add(float64(len(msgs)))
	k.logger.Warn().Err(err).Int("messages", len(msgs)).Msg("delivery failed")
}

func (k *Kafka) publish(typ string, data any) {
	b, err := json.Marshal(Event{Exchange: k.exchange, Type: typ, Time: k.now().UTC(), Data: data})
	if err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		k.logger.Error().Err(err).Str("type", typ).Msg("encode event")
		return
	}
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{Key: []byte(k.exchange), Value: b}); err != nil {
		metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		k.logger.Warn().Err(err).Str("type", typ).Msg("enqueue event")
	}
}

func (k *Kafka) PublishConnectivity(c common.Connectivity) { k.publish("connectivity", c.String()) }
func (k *Kafka) PublishBook(b common.BookSnapshot)         { k.publish("book", b) }
func (k *Kafka) PublishOrder(o common.OrderUpdate)         { k.publish("order", o) }
func (k *Kafka) PublishTrade(t common.TradeUpdate)         { k.publish("trade", t) }
func (k *Kafka) PublishWallet(w common.WalletUpdate)       { k.publish("wallet", w) }

// Close flushes pending messages.
func (k *Kafka) Close() error { return k.writer.Close() }

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/health"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
)

var book = common.BookSnapshot{
	Bids: []common.Level{{Price: 9, Size: 1}, {Price: 10, Size: 2}},
	Asks: []common.Level{{Price: 11, Size: 3}, {Price: 12, Size: 4}, {Price: 13, Size: 5}},
}

type counter struct {
	common.NopPublisher
	conn, books int
}

func (c *counter) PublishConnectivity(common.Connectivity) { c.conn++ }
func (c *counter) PublishBook(common.BookSnapshot)         { c.books++ }

func TestFanout(t *testing.T) {
	a, b := &counter{}, &counter{}
	f := Fanout{a, b}
	f.PublishConnectivity(common.Connected)
	f.PublishBook(book)
	f.PublishBook(book)
	f.PublishOrder(common.OrderUpdate{})
	f.PublishTrade(common.TradeUpdate{})
	f.PublishWallet(common.WalletUpdate{})
	assert.Equal(t, 1, a.conn)
	assert.Equal(t, 2, b.books)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(zerolog.New(&buf).Level(zerolog.DebugLevel))
	l.PublishConnectivity(common.Connected)
	l.PublishBook(book)
	out := buf.String()
	assert.Contains(t, out, `"state":"connected"`)
	assert.Contains(t, out, `"best_bid":10`)
	assert.Contains(t, out, `"best_ask":11`)
}

func TestMetricsSink(t *testing.T) {
	m := NewMetrics("test")
	m.PublishBook(book)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BookLevels.WithLabelValues("test", "bid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.BookLevels.WithLabelValues("test", "ask")))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.BestBid.WithLabelValues("test")))
	assert.Equal(t, 11.0, testutil.ToFloat64(metrics.BestAsk.WithLabelValues("test")))

	m.PublishConnectivity(common.Disconnected)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.BookLevels.WithLabelValues("test", "bid")))
}

func TestLatest(t *testing.T) {
	health.Set(false, "starting")
	l := NewLatest("bitshares")
	assert.Equal(t, "disconnected", l.Status().Connectivity)

	l.PublishConnectivity(common.Connected)
	assert.True(t, health.Ready())
	assert.Equal(t, "connected", health.Reason())
	l.PublishBook(book)

	st := l.Status()
	assert.Equal(t, "connected", st.Connectivity)
	assert.Equal(t, uint64(1), st.Updates)
	assert.Equal(t, book, l.Book(0))

	top := l.Book(1)
	assert.Equal(t, []common.Level{{Price: 10, Size: 2}}, top.Bids)
	assert.Equal(t, []common.Level{{Price: 11, Size: 3}}, top.Asks)

	l.PublishConnectivity(common.Disconnected)
	assert.False(t, health.Ready())
	assert.Equal(t, "disconnected", health.Reason())
	assert.Empty(t, l.Book(0).Bids)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink(t *testing.T) {
	fw := &fakeWriter{}
	k := NewKafka([]string{"127.0.0.1:9092"}, "events", "bitshares", log.Nop())
	k.writer = fw
	k.now = func() time.Time { return time.Unix(1700000000, 0) }

	k.PublishConnectivity(common.Connected)
	k.PublishBook(book)
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, "bitshares", string(fw.msgs[0].Key))

	var ev struct {
		Exchange string              `json:"exchange"`
		Type     string              `json:"type"`
		Data     common.BookSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &ev))
	assert.Equal(t, "book", ev.Type)
	assert.Equal(t, book, ev.Data)
	assert.JSONEq(t, `{"exchange":"bitshares","type":"connectivity","time":"2023-11-14T22:13:20Z","data":"connected"}`, string(fw.msgs[0].Value))
	require.NoError(t, k.Close())
}

func TestKafkaSinkCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues("kafka"))
	k := NewKafka(nil, "events", "bitshares", log.Nop())
	k.writer = &fakeWriter{err: errors.New("queue full")}
	k.PublishBook(book)
	k.completed([]kafka.Message{{}, {}}, errors.New("broker down"))
	k.completed([]kafka.Message{{}}, nil)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues("kafka")))
}

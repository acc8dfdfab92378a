// Package ws is the push transport: one websocket connection at a time,
// redialed with backoff whenever it drops.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
)

// Conn is the write side of a live connection handed to the Handler.
type Conn interface {
	Send(data []byte) error
}

// Handler receives connection events. All three methods are invoked from the
// client's run goroutine, never concurrently.
type Handler interface {
	OnConnect(c Conn)
	OnMessage(c Conn, data []byte)
	OnDisconnect(err error)
}

var ErrClosed = errors.New("ws: client closed")

type Client struct {
	Name string
	URL  string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	ReadLimit    int64

	handler Handler
	logger  log.Logger
	dialer  *websocket.Dialer

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func New(name, url string, h Handler, logger log.Logger) *Client {
	return &Client{
		Name:         name,
		URL:          url,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		PingInterval: 15 * time.Second,
		MinBackoff:   500 * time.Millisecond,
		MaxBackoff:   30 * time.Second,
		ReadLimit:    5 << 20,
		handler:      h,
		logger:       log.Component(logger, "ws"),
		dialer:       websocket.DefaultDialer,
	}
}

// Run dials, serves and redials until ctx is done or Close is called.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	b := &backoff.Backoff{Min: c.MinBackoff, Max: c.MaxBackoff, Factor: 2, Jitter: true}
	for {
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Info().Str("url", c.URL).Msg("connecting")
		conn, _, err := c.dialer.DialContext(ctx, c.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			metrics.WSReconnectsTotal.WithLabelValues(c.Name, "dial").Inc()
			wait := b.Duration()
			c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("dial failed")
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}
		b.Reset()
		err = c.serve(ctx, conn)
		c.handler.OnDisconnect(err)
		if ctx.Err() != nil {
			return nil
		}
		metrics.WSReconnectsTotal.WithLabelValues(c.Name, "read").Inc()
		wait := b.Duration()
		c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("connection lost")
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// Close stops the client without reconnecting.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	sess := &wsConn{conn: conn, writeTimeout: c.WriteTimeout}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()
	go c.keepalive(conn, done)

	conn.SetReadLimit(c.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	})

	c.logger.Info().Str("url", c.URL).Msg("connected")
	c.handler.OnConnect(sess)
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		if typ != websocket.TextMessage {
			continue
		}
		c.handler.OnMessage(sess, msg)
	}
}

func (c *Client) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	if c.PingInterval <= 0 {
		return
	}
	t := time.NewTicker(c.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

type wsConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (w *wsConn) Send(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

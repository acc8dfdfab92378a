package bitshares

import (
	"venuegw/internal/infra/log"
	"venuegw/internal/transport/ws"
)

// debugHandler wraps a ws.Handler and logs every frame in both directions
// before passing it through unchanged.
type debugHandler struct {
	next   ws.Handler
	logger log.Logger
}

func newDebugHandler(next ws.Handler, logger log.Logger) ws.Handler {
	return &debugHandler{next: next, logger: log.Component(logger, "wire")}
}

func (d *debugHandler) OnConnect(c ws.Conn) {
	d.logger.Info().Msg("connect")
	d.next.OnConnect(&debugConn{Conn: c, logger: d.logger})
}

func (d *debugHandler) OnMessage(c ws.Conn, data []byte) {
	d.logger.Info().Bytes("frame", data).Msg("<<")
	d.next.OnMessage(&debugConn{Conn: c, logger: d.logger}, data)
}

func (d *debugHandler) OnDisconnect(err error) {
	d.logger.Info().Err(err).Msg("disconnect")
	d.next.OnDisconnect(err)
}

type debugConn struct {
	ws.Conn
	logger log.Logger
}

func (c *debugConn) Send(data []byte) error {
	c.logger.Info().Bytes("frame", data).Msg(">>")
	return c.Conn.Send(data)
}

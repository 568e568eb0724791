package ws

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024
)

// client owns the write side of one connection. Only the goroutine that
// created it writes data frames.
type client struct {
	id      id.ConnID
	conn    *websocket.Conn
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func newClient(conn *websocket.Conn, metrics *monitoring.Metrics, logger *zap.Logger) *client {
	cid := id.NewConnID()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	metrics.IncWSConnections()
	return &client{
		id:      cid,
		conn:    conn,
		metrics: metrics,
		logger:  logger.With(zap.String("conn", cid.String())),
	}
}

func (c *client) close() {
	c.metrics.DecWSConnections()
	_ = c.conn.Close()
}

func (c *client) binary(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", "output")
	return nil
}

func (c *client) send(msgType string, v interface{}) error {
	data, err := sonic.Marshal(map[string]interface{}{"type": msgType, "data": v})
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", msgType)
	return nil
}

func (c *client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// goodbye sends a normal close frame with reason
func (c *client) goodbye(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readLoop consumes frames until the peer goes away, passing each to fn.
// The returned channel is closed when reading stops.
func (c *client) readLoop(fn func(kind int, data []byte)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			kind, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Debug("websocket read failed", zap.Error(err))
				}
				return
			}
			fn(kind, data)
		}
	}()
	return done
}

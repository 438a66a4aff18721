package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

var errConnClosed = errors.New("connection closed")

// frame is the wire shape of every pushed event.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// wsConn adapts a coder/websocket connection to Sender. Writes are
// serialized; a failed write marks the conn dead so later sends drop fast.
type wsConn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Send(event string, data any) error {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := c.ws.Write(ctx, websocket.MessageText, b); err != nil {
		c.closed = true
		return err
	}
	return nil
}

func (c *wsConn) Close(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.ws.Close(websocket.StatusNormalClosure, reason)
}

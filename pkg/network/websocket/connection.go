package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// timedConn is a gorilla connection that applies a fixed write deadline
// to every outgoing message.
type timedConn struct {
	*websocket.Conn
	deadline time.Duration
}

func (c *timedConn) read() ([]byte, error) {
	_, data, err := c.ReadMessage()
	return data, err
}

func (c *timedConn) write(t int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(c.deadline)); err != nil {
		return err
	}
	return c.WriteMessage(t, data)
}

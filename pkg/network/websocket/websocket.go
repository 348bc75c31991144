package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/invigilo/proctord/pkg/logger"
)

const (
	maxMessageSize = 10 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
)

type WSMessageHandler func(message []byte, err error)

// WS wraps a gorilla/websocket connection with single reader and writer
// pumps, so all reads and writes are serialized and per-connection message
// order is preserved.
type WS struct {
	conn timedConn
	send chan []byte

	OnMessage WSMessageHandler

	pingPong bool
	closed   atomic.Bool
	once     sync.Once
	readDone chan struct{}

	log *logger.Logger

	Done chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	WriteBufferPool: &sync.Pool{},
}

// NewServer upgrades an incoming HTTP request to a websocket peer.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*WS, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, true, log), nil
}

func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *WS {
	return &WS{
		conn:     timedConn{Conn: conn, deadline: writeWait},
		send:     make(chan []byte, 32),
		pingPong: pingPong,
		readDone: make(chan struct{}),
		log:      log,
		Done:     make(chan struct{}, 1),
	}
}

// Listen starts the reader and writer pumps and returns the termination channel.
// OnMessage must be set before the call.
func (ws *WS) Listen() chan struct{} {
	go ws.writer()
	go ws.reader()
	return ws.Done
}

// reader pumps messages from the websocket connection to the OnMessage callback.
// Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		close(ws.readDone)
		ws.shut()
		ws.log.Debug().Msg("ws reader closed")
	}()
	ws.conn.SetReadLimit(maxMessageSize)
	if ws.pingPong {
		_ = ws.conn.SetReadDeadline(time.Now().Add(pongTime))
		ws.conn.SetPongHandler(func(string) error {
			return ws.conn.SetReadDeadline(time.Now().Add(pongTime))
		})
	}
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				ws.log.Error().Err(err).Msg("ws read")
			}
			return
		}
		ws.OnMessage(message, nil)
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Serializes all websocket writes.
func (ws *WS) writer() {
	var ticker *time.Ticker
	if ws.pingPong {
		ticker = time.NewTicker(pingTime)
		defer ticker.Stop()
	} else {
		ticker = time.NewTicker(time.Hour)
		ticker.Stop()
	}
	defer ws.log.Debug().Msg("ws writer closed")
	for {
		select {
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				ws.shut()
				return
			}
		case <-ticker.C:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				ws.shut()
				return
			}
		case <-ws.readDone:
			return
		}
	}
}

// Write queues a message for the writer pump; messages after close are dropped.
func (ws *WS) Write(data []byte) {
	if ws.closed.Load() {
		return
	}
	select {
	case ws.send <- data:
	case <-ws.readDone:
	}
}

func (ws *WS) Close() {
	_ = ws.conn.write(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.shut()
}

func (ws *WS) shut() {
	ws.once.Do(func() {
		ws.closed.Store(true)
		_ = ws.conn.Conn.Close()
		ws.Done <- struct{}{}
	})
}

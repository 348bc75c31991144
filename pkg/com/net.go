package com

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/invigilo/proctord/pkg/api"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/network/websocket"
)

// Client is a packet-oriented wrapper over one websocket connection.
// Fire-and-forget sends go through Notify, request/response pairs through
// Call, which correlates the response by the packet id.
type Client struct {
	conn *websocket.WS
	id   Uid

	mu       sync.Mutex
	queue    map[string]*call
	onPacket func(packet api.In)

	log *logger.Logger
}

type call struct {
	done     chan struct{}
	err      error
	response api.In
}

var (
	ErrConnClosed = errors.New("connection closed")
	ErrTimeout    = errors.New("timeout")
)

const callTimeout = 5 * time.Second

// NewServerClient upgrades an incoming request into a server-side client.
func NewServerClient(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*Client, error) {
	id := NewUid()
	ws, err := websocket.NewServer(w, r, log.Extend(log.With().
		Str("cid", id.Short()).
		Str(logger.DirectionField, "←")))
	if err != nil {
		return nil, err
	}
	return connect(ws, id, log), nil
}

// NewClient dials a remote relay endpoint.
func NewClient(address url.URL, log *logger.Logger) (*Client, error) {
	id := NewUid()
	ws, err := websocket.NewClient(address, log.Extend(log.With().
		Str("cid", id.Short()).
		Str(logger.DirectionField, "→")))
	if err != nil {
		return nil, err
	}
	return connect(ws, id, log), nil
}

func connect(conn *websocket.WS, id Uid, log *logger.Logger) *Client {
	c := &Client{
		conn:  conn,
		id:    id,
		queue: make(map[string]*call, 1),
		log:   log.Extend(log.With().Str("cid", id.Short())),
	}
	c.conn.OnMessage = c.handleMessage
	return c
}

func (c *Client) Id() Uid { return c.id }

func (c *Client) OnPacket(fn func(packet api.In)) {
	c.mu.Lock()
	c.onPacket = fn
	c.mu.Unlock()
}

// Listen starts the connection pumps; the returned channel closes-out on disconnect.
func (c *Client) Listen() chan struct{} { return c.conn.Listen() }

// Notify sends a packet without waiting for a response.
func (c *Client) Notify(t api.PT, payload any) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("%v", t)
	_ = c.sendPacket(&api.Out{T: uint8(t), Payload: payload})
}

// Route replies to the in packet, preserving its id for the caller-side correlation.
func (c *Client) Route(in api.In, payload any) {
	_ = c.sendPacket(&api.Out{Id: in.Id, T: uint8(in.T), Payload: payload})
}

// Call makes a blocking request and returns the raw response payload.
func (c *Client) Call(t api.PT, payload any) ([]byte, error) {
	c.log.Debug().Str(logger.DirectionField, "→").Msgf("ᵇ%v", t)
	id := NewUid().String()
	task := &call{done: make(chan struct{})}
	c.mu.Lock()
	c.queue[id] = task
	c.mu.Unlock()
	if err := c.sendPacket(&api.Out{Id: id, T: uint8(t), Payload: payload}); err != nil {
		c.pop(id)
		return nil, err
	}
	select {
	case <-task.done:
	case <-time.After(callTimeout):
		c.pop(id)
		task.err = ErrTimeout
	}
	return task.response.Payload, task.err
}

func (c *Client) sendPacket(packet *api.Out) error {
	r, err := json.Marshal(packet)
	if err != nil {
		return err
	}
	c.conn.Write(r)
	return nil
}

func (c *Client) Disconnect() {
	c.conn.Close()
	c.drain(ErrConnClosed)
	c.log.Debug().Str(logger.DirectionField, "x").Msg("Close")
}

func (c *Client) handleMessage(message []byte, err error) {
	if err != nil {
		return
	}
	var res api.In
	if err = json.Unmarshal(message, &res); err != nil {
		c.log.Error().Err(err).Msg("broken packet")
		return
	}
	// empty id implies that we won't track (wait) the response
	if res.Id != "" {
		if task := c.pop(res.Id); task != nil {
			task.response = res
			close(task.done)
			return
		}
	}
	c.mu.Lock()
	fn := c.onPacket
	c.mu.Unlock()
	if fn != nil {
		fn(res)
	}
}

// pop extracts and removes a task from the queue by its id.
func (c *Client) pop(id string) *call {
	c.mu.Lock()
	task := c.queue[id]
	delete(c.queue, id)
	c.mu.Unlock()
	return task
}

// drain cancels all what's left in the task queue.
func (c *Client) drain(err error) {
	c.mu.Lock()
	for id, task := range c.queue {
		if task.err == nil {
			task.err = err
		}
		close(task.done)
		delete(c.queue, id)
	}
	c.mu.Unlock()
}

package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	ErrConnClosed   = errors.New("push connection closed")
	ErrSlowConsumer = errors.New("push connection send buffer full")
)

// WSConfig tunes a websocket connection.
type WSConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	SendBuffer int
	ReadLimit  int64
}

func DefaultWSConfig() WSConfig {
	return WSConfig{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
		SendBuffer: 32,
		ReadLimit:  4096,
	}
}

// WSConn adapts a gorilla websocket to Conn. All writes happen on one
// goroutine; Send only enqueues.
type WSConn struct {
	id   string
	ws   *websocket.Conn
	cfg  WSConfig
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewWSConn starts the writer goroutine for ws. Zero config fields take
// their DefaultWSConfig values.
func NewWSConn(ws *websocket.Conn, cfg WSConfig) *WSConn {
	def := DefaultWSConfig()
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 1
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = def.ReadLimit
	}
	c := &WSConn{
		id:   uuid.NewString(),
		ws:   ws,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendBuffer),
		done: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *WSConn) ID() string { return c.id }

// Send queues payload for the writer. It fails fast when the connection is
// closed or its buffer is full rather than blocking the caller's fan-out.
func (c *WSConn) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSlowConsumer
	}
}

// Close stops the writer and closes the socket. Safe to call repeatedly.
func (c *WSConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

// Done is closed once the connection has been shut down.
func (c *WSConn) Done() <-chan struct{} { return c.done }

// ReadLoop reads and discards client frames, keeping pong deadlines fresh,
// until the peer goes away. It must run on its own goroutine.
func (c *WSConn) ReadLoop() {
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})
	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}

func (c *WSConn) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

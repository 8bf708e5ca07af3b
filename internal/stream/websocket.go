package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 5 * time.Second
)

// WebSocket is a Transport backed by gorilla/websocket. Each Open dials a new
// connection.
type WebSocket struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
	Logger *slog.Logger

	nextID atomic.Uint64
}

func NewWebSocket(url string, handshake time.Duration, logger *slog.Logger) *WebSocket {
	if handshake <= 0 {
		handshake = DefaultHandshakeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocket{
		URL:    url,
		Dialer: &websocket.Dialer{HandshakeTimeout: handshake, Proxy: http.ProxyFromEnvironment},
		Logger: logger,
	}
}

func (w *WebSocket) Open(ctx context.Context, sink Sink) Conn {
	id := w.nextID.Add(1)
	ctx, cancel := context.WithCancel(ctx)

	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &wsConn{
		id:     id,
		sink:   sink,
		cancel: cancel,
		log:    log.With("conn", id),
	}

	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	go c.run(ctx, dialer, w.URL, w.Header)
	return c
}

type wsConn struct {
	id     uint64
	sink   Sink
	cancel context.CancelFunc
	log    *slog.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	open   bool
	closed bool

	closeOnce sync.Once
}

func (c *wsConn) ID() uint64 { return c.id }

func (c *wsConn) run(ctx context.Context, dialer *websocket.Dialer, url string, header http.Header) {
	c.log.Debug("dialing", "url", url)
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		c.emit(Failure(c.id, FailureTransport, fmt.Sprintf("connect %s: %v", url, err), err))
		c.emit(Closed(c.id))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.open = true
	c.mu.Unlock()

	c.log.Debug("connected")
	c.emit(Opened(c.id))
	c.readLoop(ws)
}

func (c *wsConn) readLoop(ws *websocket.Conn) {
	defer ws.Close()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("server closed connection")
			} else {
				c.log.Warn("connection dropped", "error", err)
				c.emit(Failure(c.id, FailureTransport, fmt.Sprintf("connection dropped: %v", err), err))
			}
			c.emit(Closed(c.id))
			return
		}
		c.emit(DecodeFrame(c.id, data))
	}
}

// emit drops ev once the connection is closed. The sink runs outside mu;
// Close must not wait on it.
func (c *wsConn) emit(ev Event) {
	if c.isClosed() {
		return
	}
	c.sink(ev)
}

func (c *wsConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *wsConn) Send(msg StartMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.open {
		return ErrNotOpen
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("stream: set write deadline: %w", err)
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("stream: send start message: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		ws := c.ws
		c.mu.Unlock()

		c.cancel()
		if ws == nil {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = ws.Close()
		c.log.Debug("closed")
	})
	return nil
}

// Package canvas maintains the websocket connection to the character canvas.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"glyphbridge/internal/telemetry"
	"glyphbridge/logging"
	"glyphbridge/logging/network"
)

const (
	// DefaultReconnectDelay is the fixed wait between a dropped connection
	// and the next dial.
	DefaultReconnectDelay = time.Second
	writeWait             = 10 * time.Second
	handshakeTimeout      = 10 * time.Second
)

var (
	// ErrClosed is returned by Run when the connection ends and the client
	// is configured not to reconnect.
	ErrClosed = errors.New("canvas: connection closed")
	// ErrNotConnected is returned by Send while no connection is open.
	ErrNotConnected = errors.New("canvas: not connected")
)

// Handler receives connection lifecycle callbacks and inbound payloads.
type Handler interface {
	// OnConnect runs after every successful dial, concurrently with reads.
	OnConnect(ctx context.Context)
	// HandleInbound returns an error for payloads that should be discarded.
	HandleInbound(payload []byte) error
}

// Config configures a Client.
type Config struct {
	URL            string
	Header         http.Header
	ReconnectDelay time.Duration
	FatalOnClose   bool
	Dialer         *websocket.Dialer
	Logger         telemetry.Logger
	Metrics        telemetry.Metrics
	Publisher      logging.Publisher
}

type connection struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// Client dials the canvas, keeps one connection open and reconnects after a
// fixed delay when it drops.
type Client struct {
	cfg      Config
	dialer   *websocket.Dialer
	logger   telemetry.Logger
	metrics  telemetry.Metrics
	pub      logging.Publisher
	attempts atomic.Uint64

	mu      sync.RWMutex
	current *connection
}

// NewClient creates an idle client; call Run to connect.
func NewClient(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  16 * 1024,
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Client{cfg: cfg, dialer: dialer, logger: logger, metrics: cfg.Metrics, pub: pub}
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// ConnectionID returns the id of the open connection, or "".
func (c *Client) ConnectionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.id
}

// Attempts reports how many dials have been made.
func (c *Client) Attempts() uint64 {
	return c.attempts.Load()
}

// Run connects and serves inbound messages until ctx ends. It returns
// ctx.Err() on cancellation, or an error wrapping ErrClosed when the
// connection drops and FatalOnClose is set.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	for {
		reason := c.session(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.cfg.FatalOnClose {
			return fmt.Errorf("%w: %v", ErrClosed, reason)
		}

		attempt := c.attempts.Load()
		network.ReconnectScheduled(ctx, c.pub, "", network.ReconnectPayload{
			DelayMillis: c.cfg.ReconnectDelay.Milliseconds(),
			Attempt:     attempt + 1,
		})
		c.logger.Printf("connection lost (%v), reconnecting in %s", reason, c.cfg.ReconnectDelay)

		timer := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs a single connection and returns why it ended.
func (c *Client) session(ctx context.Context, handler Handler) error {
	attempt := c.attempts.Add(1)
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		c.addMetric("canvas_dial_failures_total", 1)
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	current := &connection{id: uuid.NewString(), conn: conn}
	c.mu.Lock()
	c.current = current
	c.mu.Unlock()
	c.addMetric("canvas_connects_total", 1)

	network.Connected(ctx, c.pub, current.id, network.ConnectionPayload{URL: c.cfg.URL, Attempt: attempt})
	c.logger.Printf("connected to %s (%s)", c.cfg.URL, current.id)

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-readCtx.Done()
		if ctx.Err() != nil {
			current.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			current.mu.Unlock()
		}
		conn.Close()
	}()

	if handler != nil {
		go handler.OnConnect(readCtx)
	}

	var reason error
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			reason = err
			break
		}
		if handler == nil {
			continue
		}
		if err := handler.HandleInbound(payload); err != nil {
			c.addMetric("canvas_inbound_discarded_total", 1)
			network.InboundDiscarded(ctx, c.pub, current.id, network.DiscardPayload{Bytes: len(payload), Reason: err.Error()})
		}
	}

	c.mu.Lock()
	if c.current == current {
		c.current = nil
	}
	c.mu.Unlock()
	c.addMetric("canvas_disconnects_total", 1)
	network.Disconnected(ctx, c.pub, current.id, network.DisconnectPayload{URL: c.cfg.URL, Reason: reason.Error()})
	return reason
}

// Send marshals v and writes it as one text frame. While disconnected it
// returns ErrNotConnected and the message is lost.
func (c *Client) Send(ctx context.Context, v any) error {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()
	if current == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("canvas: marshal: %w", err)
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	current.mu.Lock()
	defer current.mu.Unlock()
	current.conn.SetWriteDeadline(deadline)
	if err := current.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.addMetric("canvas_send_errors_total", 1)
		return fmt.Errorf("canvas: write: %w", err)
	}
	c.addMetric("canvas_messages_sent_total", 1)
	c.addMetric("canvas_bytes_sent_total", uint64(len(data)))
	return nil
}

func (c *Client) addMetric(key string, delta uint64) {
	if c.metrics != nil {
		c.metrics.Add(key, delta)
	}
}

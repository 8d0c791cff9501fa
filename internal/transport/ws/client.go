// Package ws maintains the reconnecting websocket used for live updates.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// ErrNotConnected is returned by Send while no connection is open.
var ErrNotConnected = errors.New("live channel not connected")

// Config configures a Client.
type Config struct {
	URL          string
	Header       http.Header
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Dialer       *websocket.Dialer
}

// FrameHandler receives every text frame.
type FrameHandler func(ctx context.Context, frame []byte)

// OpenHook runs after each successful (re)connect, before frames are read.
type OpenHook func(ctx context.Context, c *Client)

// Client is a single reconnecting connection. Run owns the connection;
// Send may be called from any goroutine.
type Client struct {
	cfg Config

	mu     sync.Mutex
	send   chan []byte
	hooks  []OpenHook
	status func(connected bool)
}

// New creates a client. Zero reconnect bounds default to 500ms and 30s.
func New(cfg Config) *Client {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{cfg: cfg}
}

// OnOpen registers a hook run after every connect.
func (c *Client) OnOpen(h OpenHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// OnStatus registers a callback for connection state changes.
func (c *Client) OnStatus(fn func(connected bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = fn
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send != nil
}

// Send queues v as a JSON text frame.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return ErrNotConnected
	}

	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send frame: queue full")
	}
}

// Run connects and delivers frames to fn until ctx is cancelled,
// reconnecting with a capped Fibonacci backoff after every failure.
func (c *Client) Run(ctx context.Context, fn FrameHandler) error {
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = c.serve(ctx, conn, fn)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Str("url", c.cfg.URL).Msg("live channel disconnected, reconnecting")
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	b := retry.NewFibonacci(c.cfg.ReconnectMin)
	b = retry.WithCappedDuration(c.cfg.ReconnectMax, b)

	var conn *websocket.Conn
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		dialed, resp, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return fmt.Errorf("dial %s: %s: %w", c.cfg.URL, resp.Status, err)
			}
			log.Debug().Err(err).Str("url", c.cfg.URL).Msg("live channel dial failed")
			return retry.RetryableError(err)
		}
		conn = dialed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect live channel: %w", err)
	}
	return conn, nil
}

func (c *Client) setConnected(send chan []byte) {
	c.mu.Lock()
	c.send = send
	status := c.status
	c.mu.Unlock()

	if status != nil {
		status(send != nil)
	}
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn, fn FrameHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := make(chan []byte, sendBuffer)
	c.setConnected(send)
	defer c.setConnected(nil)

	log.Info().Str("url", c.cfg.URL).Msg("live channel connected")

	writeErr := make(chan error, 1)
	go func() {
		err := c.writePump(ctx, conn, send)
		if err != nil {
			cancel()
		}
		writeErr <- err
	}()

	c.mu.Lock()
	hooks := append([]OpenHook(nil), c.hooks...)
	c.mu.Unlock()
	for _, h := range hooks {
		h(ctx, c)
	}

	readErr := c.readPump(ctx, conn, fn)
	cancel()
	_ = conn.Close()

	if err := <-writeErr; err != nil && readErr == nil {
		return err
	}
	return readErr
}

func (c *Client) readPump(ctx context.Context, conn *websocket.Conn, fn FrameHandler) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		fn(ctx, data)
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

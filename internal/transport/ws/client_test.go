package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	upgrader websocket.Upgrader
	conns    atomic.Int32
	received chan []byte
	frames   []string
	// closeFirst drops the first connection after sending frames
	closeFirst bool
	rejectAuth bool

	mu      sync.Mutex
	headers []http.Header
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	if s.rejectAuth {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	n := s.conns.Add(1)

	for _, f := range s.frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return
		}
	}

	if s.closeFirst && n == 1 {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.received <- data
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications/"
}

func TestClient_DeliversFramesAndSendsOnOpen(t *testing.T) {
	fs := &fakeServer{
		received: make(chan []byte, 4),
		frames:   []string{`{"notification_count": 1}`, `{"notification_count": 2}`},
	}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	header := http.Header{}
	header.Set("Cookie", "sessionid=abc")
	c := New(Config{URL: wsURL(srv), Header: header, ReconnectMin: 10 * time.Millisecond})
	c.OnOpen(func(_ context.Context, c *Client) {
		assert.NoError(t, c.Send(map[string]string{"type": "object_notification", "object_id": "42"}))
	})

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(_ context.Context, f []byte) { frames <- string(f) })
	}()

	assert.JSONEq(t, `{"notification_count": 1}`, <-frames)
	assert.JSONEq(t, `{"notification_count": 2}`, <-frames)

	var sub map[string]string
	require.NoError(t, json.Unmarshal(<-fs.received, &sub))
	assert.Equal(t, "42", sub["object_id"])

	fs.mu.Lock()
	assert.Equal(t, "sessionid=abc", fs.headers[0].Get("Cookie"))
	fs.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
	assert.False(t, c.Connected())
}

func TestClient_Reconnects(t *testing.T) {
	fs := &fakeServer{
		received:   make(chan []byte, 4),
		frames:     []string{`{"reload_widget": true}`},
		closeFirst: true,
	}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	c := New(Config{URL: wsURL(srv), ReconnectMin: 10 * time.Millisecond, ReconnectMax: 50 * time.Millisecond})

	var opens atomic.Int32
	c.OnOpen(func(context.Context, *Client) { opens.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan string, 4)
	go func() { _ = c.Run(ctx, func(_ context.Context, f []byte) { frames <- string(f) }) }()

	<-frames
	<-frames
	assert.GreaterOrEqual(t, fs.conns.Load(), int32(2))
	assert.GreaterOrEqual(t, opens.Load(), int32(2))
}

func TestClient_AuthFailureIsNotRetried(t *testing.T) {
	fs := &fakeServer{rejectAuth: true}
	srv := httptest.NewServer(fs)
	defer srv.Close()

	c := New(Config{URL: wsURL(srv), ReconnectMin: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Run(ctx, func(context.Context, []byte) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	fs.mu.Lock()
	assert.Len(t, fs.headers, 1)
	fs.mu.Unlock()
}

func TestClient_SendWithoutConnection(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1/ws/notifications/"})
	assert.ErrorIs(t, c.Send(map[string]string{"notification_id": "n1"}), ErrNotConnected)
}

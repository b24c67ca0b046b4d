package canvas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"glyphbridge/internal/net/proto"
	"glyphbridge/logging"
	"glyphbridge/logging/network"
)

type canvasServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	conns    chan *websocket.Conn
}

func newCanvasServer(t *testing.T) (*canvasServer, *httptest.Server) {
	t.Helper()
	cs := &canvasServer{
		t:     t,
		conns: make(chan *websocket.Conn, 4),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := cs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		cs.conns <- conn
	}))
	t.Cleanup(srv.Close)
	return cs, srv
}

func (cs *canvasServer) next(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-cs.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(3 * time.Second):
		t.Fatalf("expected client to connect")
		return nil
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type recordingHandler struct {
	mu        sync.Mutex
	connects  int
	inbound   []string
	connected chan struct{}
	received  chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		connected: make(chan struct{}, 8),
		received:  make(chan struct{}, 8),
	}
}

func (h *recordingHandler) OnConnect(context.Context) {
	h.mu.Lock()
	h.connects++
	h.mu.Unlock()
	h.connected <- struct{}{}
}

func (h *recordingHandler) HandleInbound(payload []byte) error {
	defer func() { h.received <- struct{}{} }()
	msg, err := proto.DecodeInbound(payload)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.inbound = append(h.inbound, msg.Text)
	h.mu.Unlock()
	return nil
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event logging.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *recordingPublisher) count(eventType logging.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestClientSendsAndReceives(t *testing.T) {
	cs, srv := newCanvasServer(t)
	pub := &recordingPublisher{}
	client := NewClient(Config{URL: wsURL(srv), Publisher: pub})
	handler := newRecordingHandler()

	if err := client.Send(context.Background(), proto.NewChat("a", "b", "#000000")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected before Run, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, handler) }()

	server := cs.next(t)
	wait(t, handler.connected, "OnConnect")
	if !client.Connected() || client.ConnectionID() == "" {
		t.Fatalf("expected an open connection with an id")
	}

	if err := client.Send(ctx, proto.NewWrite(nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	server.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := server.ReadMessage()
	if err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(data) != `{"kind":"write","edits":[]}` {
		t.Fatalf("unexpected payload %s", data)
	}

	server.WriteMessage(websocket.TextMessage, []byte(`{"kind":"cmd","data":"start","sender":"x"}`))
	wait(t, handler.received, "cmd")
	server.WriteMessage(websocket.TextMessage, []byte(`garbage`))
	wait(t, handler.received, "garbage")
	server.WriteMessage(websocket.TextMessage, []byte(`{"kind":"chat","nickname":"n","message":"A"}`))
	wait(t, handler.received, "chat")

	handler.mu.Lock()
	got := append([]string(nil), handler.inbound...)
	handler.mu.Unlock()
	if len(got) != 2 || got[0] != "start" || got[1] != "A" {
		t.Fatalf("expected malformed payload to be skipped, got %v", got)
	}
	if pub.count(network.EventInboundDiscarded) != 1 {
		t.Fatalf("expected one discard event, got %d", pub.count(network.EventInboundDiscarded))
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
	if client.Connected() {
		t.Fatalf("expected client to be disconnected after Run returns")
	}
}

func TestClientReconnectsAfterDrop(t *testing.T) {
	cs, srv := newCanvasServer(t)
	pub := &recordingPublisher{}
	client := NewClient(Config{URL: wsURL(srv), ReconnectDelay: 20 * time.Millisecond, Publisher: pub})
	handler := newRecordingHandler()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx, handler)

	first := cs.next(t)
	wait(t, handler.connected, "first connect")
	firstID := client.ConnectionID()
	first.Close()

	cs.next(t)
	wait(t, handler.connected, "second connect")
	if client.Attempts() != 2 {
		t.Fatalf("expected 2 dial attempts, got %d", client.Attempts())
	}
	if id := client.ConnectionID(); id == "" || id == firstID {
		t.Fatalf("expected a fresh connection id, got %q (first %q)", id, firstID)
	}
	if pub.count(network.EventReconnectScheduled) != 1 {
		t.Fatalf("expected one reconnect event, got %d", pub.count(network.EventReconnectScheduled))
	}
}

func TestClientFatalOnClose(t *testing.T) {
	cs, srv := newCanvasServer(t)
	client := NewClient(Config{URL: wsURL(srv), FatalOnClose: true})
	handler := newRecordingHandler()

	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background(), handler) }()

	server := cs.next(t)
	wait(t, handler.connected, "connect")
	server.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected Run to stop after the connection closed")
	}
	if err := client.Send(context.Background(), proto.NewWrite(nil)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestClientDialFailureIsFatalWhenConfigured(t *testing.T) {
	client := NewClient(Config{URL: "ws://127.0.0.1:1/nowhere", FatalOnClose: true})
	err := client.Run(context.Background(), nil)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for a failed dial, got %v", err)
	}
}

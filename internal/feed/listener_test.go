package feed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Map9876/GitHub-action-torrent/internal/hub"
	"github.com/Map9876/GitHub-action-torrent/internal/render"
	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

// fakeConn replays queued messages, then blocks until closed or returns err.
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn(err error, messages ...string) *fakeConn {
	c := &fakeConn{err: err, closed: make(chan struct{})}
	for _, m := range messages {
		c.messages = append(c.messages, []byte(m))
	}
	return c
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.messages) > 0 {
		m := c.messages[0]
		c.messages = c.messages[1:]
		c.mu.Unlock()
		return websocket.TextMessage, m, nil
	}
	err := c.err
	c.mu.Unlock()

	if err != nil {
		return 0, nil, err
	}
	<-c.closed
	return 0, nil, errors.New("use of closed connection")
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type recorder struct {
	mu    sync.Mutex
	snaps []status.Snapshot
}

func (r *recorder) Consume(s status.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) paths() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]string
	for _, s := range r.snaps {
		var p []string
		for _, f := range s.Files {
			p = append(p, f.Path)
		}
		out = append(out, p)
	}
	return out
}

func TestListener_Run_DeliversInOrderAndSkipsMalformed(t *testing.T) {
	conn := newFakeConn(io.ErrUnexpectedEOF,
		`[{"path":"a"}]`,
		`not json`,
		`{"files":[{"path":"b"},{"path":"c"}]}`,
		`[]`,
	)
	l := NewListener(conn)
	rec := &recorder{}

	err := l.Run(context.Background(), rec)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Run error = %v, want wrapped ErrUnexpectedEOF", err)
	}

	got := rec.paths()
	if len(got) != 3 {
		t.Fatalf("consumed %d snapshots, want 3: %v", len(got), got)
	}
	if strings.Join(got[0], ",") != "a" || strings.Join(got[1], ",") != "b,c" || len(got[2]) != 0 {
		t.Errorf("snapshots = %v", got)
	}

	stats := l.Stats()
	if stats != (Stats{Received: 4, Rendered: 3, Skipped: 1}) {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestListener_Run_ReturnsNilOnCancel(t *testing.T) {
	conn := newFakeConn(nil)
	l := NewListener(conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, ConsumerFunc(func(status.Snapshot) {})) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestListener_CloseIdempotent(t *testing.T) {
	l := NewListener(newFakeConn(nil))
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDial_ThroughHub(t *testing.T) {
	h := hub.New()
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, err := Dial(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if l.Address() != wsURL(srv) {
		t.Errorf("Address = %q", l.Address())
	}

	dom, err := render.NewDOMFromMarkup(strings.NewReader(`<div id="downloads"></div>`), "downloads")
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan status.Snapshot, 8)
	consumer := ConsumerFunc(func(s status.Snapshot) {
		_ = dom.Render(s)
		got <- s
	})

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, consumer) }()

	// the hub replays its current (empty) state on connect
	select {
	case s := <-got:
		if s.Len() != 0 {
			t.Fatalf("initial snapshot = %+v, want empty", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	if err := h.Publish([]byte(`[{"path":"a.zip","size":1000,"downloaded":250,"speed":50}]`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case s := <-got:
		if s.Len() != 1 || s.Files[0].Path != "a.zip" {
			t.Fatalf("snapshot = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("published snapshot not delivered")
	}

	html, err := dom.ContainerHTML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `<progress value="250" max="1000"></progress>`) {
		t.Errorf("container = %s", html)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDial_NormalCloseEndsRun(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"path":"one"}]`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"bad":true}`))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte(`[{"path":"two"}]`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		// wait for the client to close its side
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	l, err := Dial(context.Background(), wsURL(srv), WithHandshakeTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer l.Close()

	rec := &recorder{}
	if err := l.Run(context.Background(), rec); err != nil {
		t.Fatalf("Run = %v, want nil on normal close", err)
	}

	got := rec.paths()
	if len(got) != 2 || got[0][0] != "one" || got[1][0] != "two" {
		t.Errorf("snapshots = %v", got)
	}
	if s := l.Stats(); s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
}

func TestDial_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := wsURL(srv)
	srv.Close()

	if _, err := Dial(context.Background(), addr, WithHandshakeTimeout(time.Second)); err == nil {
		t.Fatal("Dial to closed server succeeded")
	}
}

func TestDial_SendsHeaders(t *testing.T) {
	origins := make(chan string, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origins <- r.Header.Get("Origin")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://dashboard.local"}}
	l, err := Dial(context.Background(), wsURL(srv), WithHeader(header))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer l.Close()

	select {
	case got := <-origins:
		if got != "http://dashboard.local" {
			t.Errorf("Origin = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handshake never reached the server")
	}
}

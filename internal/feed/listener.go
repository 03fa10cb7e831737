// Package feed subscribes to the download-status websocket and hands every
// decoded snapshot to a single consumer.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

// DefaultAddress is the feed endpoint used when none is configured.
const DefaultAddress = "ws://localhost:8765"

// DefaultHandshakeTimeout bounds the websocket opening handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Conn is the part of *websocket.Conn the listener uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Consumer receives every snapshot, in arrival order, one at a time.
type Consumer interface {
	Consume(snap status.Snapshot)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(snap status.Snapshot)

// Consume calls f(snap).
func (f ConsumerFunc) Consume(snap status.Snapshot) { f(snap) }

// Stats counts what the listener has seen.
type Stats struct {
	Received int64 // messages read from the connection
	Rendered int64 // snapshots handed to the consumer
	Skipped  int64 // messages dropped because they did not decode
}

type options struct {
	handshakeTimeout time.Duration
	header           http.Header
}

// Option configures Dial and NewListener.
type Option func(*options)

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithHeader adds request headers to the opening handshake.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// Listener owns one feed connection. It never writes to it.
type Listener struct {
	conn    Conn
	address string

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool

	received atomic.Int64
	rendered atomic.Int64
	skipped  atomic.Int64
}

// Dial opens the feed connection at address.
func Dial(ctx context.Context, address string, opts ...Option) (*Listener, error) {
	o := options{handshakeTimeout: DefaultHandshakeTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, address, o.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial feed %s: %w", address, err)
	}
	utils.Debug("Connected to feed %s", address)

	l := NewListener(conn)
	l.address = address
	return l, nil
}

// NewListener wraps an already open connection.
func NewListener(conn Conn) *Listener {
	return &Listener{conn: conn}
}

// Address returns the address the listener dialed, or "" for wrapped connections.
func (l *Listener) Address() string { return l.address }

// Run reads messages until the connection ends or ctx is cancelled.
//
// Each message is decoded and passed unmodified to c. A message that fails
// to decode is logged and skipped, leaving whatever c last rendered in place.
// Run returns nil on cancellation or a normal close, and the read error
// otherwise. It does not reconnect.
func (l *Listener) Run(ctx context.Context, c Consumer) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		_, payload, err := l.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || l.closed.Load() {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Debug("Feed closed by peer: %v", err)
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}
		l.received.Add(1)

		snap, err := status.Decode(payload)
		if err != nil {
			l.skipped.Add(1)
			utils.Debug("Skipping feed message: %v", err)
			continue
		}

		c.Consume(snap)
		l.rendered.Add(1)
	}
}

// Close closes the connection. It is safe to call more than once.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.closeErr = l.conn.Close()
		if errors.Is(l.closeErr, net.ErrClosed) {
			l.closeErr = nil
		}
	})
	return l.closeErr
}

// Stats returns a snapshot of the listener's counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received: l.received.Load(),
		Rendered: l.rendered.Load(),
		Skipped:  l.skipped.Load(),
	}
}

// Package hub relays status snapshots to websocket subscribers.
//
// A producer publishes the complete current state; every connected client
// receives it, and clients that connect later are sent the latest state
// straight away.
package hub

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

// ErrClosed is returned by Publish and Register after Close.
var ErrClosed = errors.New("hub closed")

const (
	writeWait      = 10 * time.Second
	maxPayloadSize = 8 << 20
)

// Hub broadcasts the latest payload to every registered listener.
type Hub struct {
	mu        sync.Mutex
	current   []byte
	listeners map[string]chan []byte
	closed    bool

	upgrader websocket.Upgrader
}

// New returns a hub whose current state is an empty snapshot.
func New() *Hub {
	return &Hub{
		current:   []byte("[]"),
		listeners: make(map[string]chan []byte),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register adds a listener. The returned channel already holds the current
// payload and is closed by Unregister or Close.
func (h *Hub) Register() (string, <-chan []byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", nil, ErrClosed
	}
	id := uuid.New().String()
	// one slot: a slow listener only ever holds the newest payload
	ch := make(chan []byte, 1)
	ch <- h.current
	h.listeners[id] = ch
	return id, ch, nil
}

// Unregister removes a listener and closes its channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.listeners[id]; ok {
		close(ch)
		delete(h.listeners, id)
	}
}

// Publish validates payload, stores it as the current state and hands it to
// every listener without blocking.
func (h *Hub) Publish(payload []byte) error {
	if _, err := status.Decode(payload); err != nil {
		return err
	}
	msg := append([]byte(nil), payload...)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}
	h.current = msg
	for id, ch := range h.listeners {
		select {
		case ch <- msg:
		default:
			// replace the stale payload still waiting in the slot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
				utils.Debug("Dropped snapshot for slow client %s", id[:8])
			}
		}
	}
	return nil
}

// Current returns the latest published payload.
func (h *Hub) Current() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Count returns the number of registered listeners.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Close unregisters every listener. Later Publish and Register calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.listeners {
		close(ch)
		delete(h.listeners, id)
	}
}

// ServeWS upgrades the request and streams payloads to the client until
// either side goes away. Anything the client sends is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Debug("Websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			utils.Debug("Error closing websocket: %v", err)
		}
	}()

	id, ch, err := h.Register()
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer h.Unregister(id)
	utils.Debug("Client %s connected from %s", id[:8], r.RemoteAddr)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			utils.Debug("Client %s disconnected", id[:8])
			return
		case msg, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				utils.Debug("Write to client %s failed: %v", id[:8], err)
				return
			}
		}
	}
}

// ServeStatus accepts a POSTed payload or returns the current one on GET.
func (h *Hub) ServeStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(h.Current()); err != nil {
			utils.Debug("Failed to write status: %v", err)
		}
	case http.MethodPost, http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
		if err != nil {
			http.Error(w, "Failed to read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.Publish(body); err != nil {
			code := http.StatusBadRequest
			if errors.Is(err, ErrClosed) {
				code = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), code)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Handler routes "/" to ServeWS and "/status" to ServeStatus.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		h.ServeWS(w, r)
	})
	mux.HandleFunc("/status", h.ServeStatus)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","clients":%d}`, h.Count())
	})
	return mux
}

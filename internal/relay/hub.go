// ABOUTME: In-process fan-out hub with websocket observers (nhooyr.io/websocket)
// ABOUTME: Slow subscribers drop messages rather than block the writer

package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/harper/wikifaves/internal/models"
)

const (
	defaultBuffer = 16
	writeTimeout  = 5 * time.Second
)

// Handler receives inbound messages from websocket observers.
type Handler func(ctx context.Context, msg Message)

// Hub fans messages out to subscribers.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]chan Message
	dropped int

	buffer  int
	handle  Handler
	origins []string
	logger  *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets each subscriber's queue length.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithHandler sets the callback for messages sent by websocket observers.
func WithHandler(fn Handler) HubOption {
	return func(h *Hub) { h.handle = fn }
}

// WithOriginPatterns allows cross-origin websocket clients matching patterns.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) { h.origins = patterns }
}

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:   map[string]chan Message{},
		buffer: defaultBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. cancel must be called to release it.
func (h *Hub) Subscribe() (id string, ch <-chan Message, cancel func()) {
	id = uuid.NewString()
	c := make(chan Message, h.buffer)

	h.mu.Lock()
	h.subs[id] = c
	h.mu.Unlock()

	var once sync.Once
	return id, c, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
			h.mu.Unlock()
		})
	}
}

// Notify delivers msg to every subscriber whose queue has room.
func (h *Hub) Notify(_ context.Context, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.subs {
		select {
		case c <- msg:
		default:
			h.dropped++
			h.logger.Debug("relay subscriber full, dropping message", "subscriber", id, "action", msg.Action)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were dropped for full queues.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.subs {
		delete(h.subs, id)
		close(c)
	}
}

// ServeHTTP upgrades the request to a websocket and streams messages to it.
// Inbound toggleFavorite messages are passed to the hub handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("relay websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	id, ch, cancel := h.Subscribe()
	defer cancel()
	h.logger.Debug("relay observer connected", "subscriber", id)

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	go func() {
		defer stop()
		h.readLoop(ctx, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "hub closed")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, msg)
			wcancel()
			if err != nil {
				h.logger.Debug("relay write failed", "subscriber", id, "error", err)
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("relay read ended", "error", err)
			}
			return
		}
		if h.handle == nil {
			continue
		}
		switch msg.Action {
		case models.ActionToggleFavorite:
			h.handle(ctx, msg)
		default:
			h.logger.Debug("relay ignoring inbound message", "action", msg.Action)
		}
	}
}

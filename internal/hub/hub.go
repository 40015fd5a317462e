// Package hub implements the topic-filtered pub/sub broker: it accepts
// WebSocket connections, owns per-client subscription state, and fans
// broadcast messages out to subscribed clients without ever blocking on a
// slow or disconnecting client.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/daxtonb/jtac-bridge/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns the listening socket, the client registry, and the single
// dispatcher goroutine that fans broadcast messages out to subscribers.
type Hub struct {
	addr   string
	logger zerolog.Logger
	m      *metrics.Metrics

	nextClientID uint32 // atomic

	clientsMu sync.Mutex
	clients   map[uint32]*session

	bus chan string

	maxClients      int
	clientQueueSize int
	clientBurst     int
	clientRate      int

	onMessage      MessageCallback
	metricsHandler http.Handler

	server *http.Server
}

// Option configures a Hub at construction time.
type Option func(*Hub)

// WithMessageCallback installs the optional host-supplied callback invoked
// for client frames that are not SUBSCRIBE/UNSUBSCRIBE control messages.
func WithMessageCallback(cb MessageCallback) Option {
	return func(h *Hub) { h.onMessage = cb }
}

// WithMaxClients bounds the number of simultaneously connected clients;
// connections beyond the limit are rejected at the handshake.
func WithMaxClients(n int) Option {
	return func(h *Hub) { h.maxClients = n }
}

// WithClientQueueSize sets the capacity of each client's outbound queue.
func WithClientQueueSize(n int) Option {
	return func(h *Hub) { h.clientQueueSize = n }
}

// WithClientRateLimit bounds how fast any single client's control frames
// are processed.
func WithClientRateLimit(burst, perSecond int) Option {
	return func(h *Hub) {
		h.clientBurst = burst
		h.clientRate = perSecond
	}
}

// WithMetricsHandler mounts a Prometheus exposition handler at /metrics
// alongside the WebSocket and ambient HTTP endpoints.
func WithMetricsHandler(handler http.Handler) Option {
	return func(h *Hub) { h.metricsHandler = handler }
}

// New allocates the message bus, the empty client registry, and starts the
// dispatcher goroutine immediately, mirroring the reference design's
// "construction starts the broadcast task" contract.
func New(addr string, logger zerolog.Logger, m *metrics.Metrics, busCapacity int, opts ...Option) *Hub {
	h := &Hub{
		addr:            addr,
		logger:          logger,
		m:               m,
		clients:         make(map[uint32]*session),
		bus:             make(chan string, busCapacity),
		maxClients:      500,
		clientQueueSize: 1024,
	}
	for _, opt := range opts {
		opt(h)
	}

	go h.dispatch()

	return h
}

// dispatch is the hub's single long-lived fan-out goroutine: it drains the
// message bus and offers each message to every connected client's
// outbound queue without blocking on any one of them.
func (h *Hub) dispatch() {
	for formatted := range h.bus {
		if h.m != nil {
			h.m.BusDepth.Set(float64(len(h.bus)))
		}

		h.clientsMu.Lock()
		sessions := make([]*session, 0, len(h.clients))
		for _, s := range h.clients {
			sessions = append(sessions, s)
		}
		h.clientsMu.Unlock()

		for _, s := range sessions {
			if !s.enqueue(formatted) {
				err := &ClientQueueFull{ClientID: s.id}
				h.logger.Warn().Err(err).Msg("dropping broadcast for slow client")
				if h.m != nil {
					h.m.MessagesDropped.WithLabelValues("client_queue_full").Inc()
				}
			}
		}
	}
}

// Broadcast formats "<topic><Delimiter><body>" and enqueues it onto the
// message bus. It never blocks the caller; if the bus is full the message
// is dropped and logged.
func (h *Hub) Broadcast(topic, body string) {
	formatted := topic + "\x00" + body

	select {
	case h.bus <- formatted:
		if h.m != nil {
			h.m.BroadcastsSent.Inc()
		}
	default:
		err := &BusFull{Topic: topic}
		h.logger.Warn().Err(err).Msg("broadcast dropped")
		if h.m != nil {
			h.m.MessagesDropped.WithLabelValues("bus_full").Inc()
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Run binds an HTTP server exposing Handler() and serves until ctx is
// cancelled, returning *FatalIOError on an unrecoverable bind failure.
func (h *Hub) Run(ctx context.Context) error {
	h.server = &http.Server{Addr: h.addr, Handler: h.Handler()}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info().Str("addr", h.addr).Msg("hub listening")
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- &FatalIOError{Err: err}
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Warn().Err(err).Msg("hub shutdown did not complete cleanly")
		}
		h.closeAllSessions()
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler returns the hub's HTTP handler: the WebSocket upgrade endpoint
// plus /healthz, /stats, and (if WithMetricsHandler was supplied) /metrics.
// Run uses it directly; tests can mount it themselves via httptest.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/stats", h.handleStats)
	if h.metricsHandler != nil {
		mux.Handle("/metrics", h.metricsHandler)
	}
	return mux
}

func (h *Hub) closeAllSessions() {
	h.clientsMu.Lock()
	sessions := make([]*session, 0, len(h.clients))
	for _, s := range h.clients {
		sessions = append(sessions, s)
	}
	h.clientsMu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= h.maxClients {
		h.logger.Warn().Int("max_clients", h.maxClients).Msg("rejecting connection: at capacity")
		http.Error(w, "server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket handshake failed")
		return
	}

	id := atomic.AddUint32(&h.nextClientID, 1) - 1

	var limiter *rate.Limiter
	if h.clientBurst > 0 && h.clientRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.clientRate), h.clientBurst)
	}

	s := newSession(id, conn, h.logger, h.clientQueueSize, h.onMessage, h.removeClient, limiter, h.m)

	h.clientsMu.Lock()
	h.clients[id] = s
	h.clientsMu.Unlock()

	if h.m != nil {
		h.m.ConnectedClients.Set(float64(h.ClientCount()))
	}
	h.logger.Info().Uint32("client_id", id).Str("remote_addr", r.RemoteAddr).Msg("client connected")

	go s.writePump()
	go s.readPump()
}

// removeClient is the disconnect callback installed on every session. It
// is invoked exactly once per session, under that session's sync.Once, so
// the "map contains iff session alive" invariant never races.
func (h *Hub) removeClient(id uint32) {
	h.clientsMu.Lock()
	_, existed := h.clients[id]
	delete(h.clients, id)
	h.clientsMu.Unlock()

	if existed {
		if h.m != nil {
			h.m.ConnectedClients.Set(float64(h.ClientCount()))
		}
		h.logger.Info().Uint32("client_id", id).Msg("client disconnected")
	}
}

func (h *Hub) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":            "ok",
		"connected_clients": h.ClientCount(),
	})
}

func (h *Hub) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"connected_clients": h.ClientCount(),
		"bus_depth":         len(h.bus),
		"bus_capacity":      cap(h.bus),
	})
}

package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

// Runner runs fn on the goroutine that owns the renderer and waits for it.
// *reactive.Loop implements it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// HubConfig configures a Hub.
type HubConfig struct {
	// HistorySize is the number of frames kept for catch-up.
	HistorySize int

	// SendBuffer is the number of frames queued per client before the
	// client is dropped as too slow.
	SendBuffer int

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// CheckOrigin validates the Origin of upgrade requests.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Logger receives connection and write errors.
	Logger *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*HubConfig)

// WithHistorySize sets the catch-up window.
func WithHistorySize(n int) HubOption {
	return func(c *HubConfig) {
		c.HistorySize = n
	}
}

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) HubOption {
	return func(c *HubConfig) {
		if n > 0 {
			c.SendBuffer = n
		}
	}
}

// WithWriteTimeout sets the write deadline per frame.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(c *HubConfig) {
		if d > 0 {
			c.WriteTimeout = d
		}
	}
}

// WithCheckOrigin replaces the origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(c *HubConfig) {
		c.CheckOrigin = fn
	}
}

// WithHubLogger sets the hub's logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(c *HubConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

// Hub broadcasts committed frames to WebSocket clients.
//
// Commit must run on the renderer's goroutine after each tick; wire it with
// reactive.AfterTick(hub.Commit).
type Hub struct {
	host     *Host
	history  *History
	config   HubConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	seq     uint64
	closed  bool
}

// NewHub creates a hub publishing the ops recorded by host.
func NewHub(host *Host, opts ...HubOption) *Hub {
	config := HubConfig{
		HistorySize:  DefaultHistorySize,
		SendBuffer:   64,
		WriteTimeout: 10 * time.Second,
		CheckOrigin:  SameOriginCheck,
		Logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Hub{
		host:    host,
		history: NewHistory(config.HistorySize),
		config:  config,
		logger:  config.Logger.With("component", "hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// History returns the hub's frame history.
func (h *Hub) History() *History {
	return h.history
}

// Seq returns the sequence number of the last committed frame.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Commit turns the host's pending ops into the next frame, records it and
// sends it to every client. It does nothing when no op is pending.
func (h *Hub) Commit() {
	ops := h.host.Take()
	if len(ops) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	frame := Frame{Seq: h.seq + 1, Ops: ops}
	data, err := frame.Encode()
	if err != nil {
		h.logger.Error("frame encode failed", "seq", frame.Seq, "error", err)
		return
	}
	h.seq = frame.Seq
	h.history.Add(frame.Seq, data)

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client too slow, dropping", "client", c.id)
			h.dropLocked(c)
		}
	}
}

// Snapshot returns a reset frame describing the current tree.
// It must run on the renderer's goroutine.
func (h *Hub) Snapshot() Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Frame{Seq: h.seq, Reset: true, Ops: h.host.Snapshot()}
}

// Handler returns the WebSocket endpoint. Joining clients are registered
// through run so that their first frames line up with the committed state.
// A client may pass ?after=<seq> to resume from the history.
func (h *Hub) Handler(run Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after, resume := parseAfter(r.URL.Query().Get("after"))

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// The upgrader has already written the HTTP error.
			h.logger.Error("websocket upgrade failed",
				"error", rfxerrors.New("S001").Wrap(err),
				"remote", r.RemoteAddr)
			return
		}

		c := newClient(conn, h.config.SendBuffer)
		var initial [][]byte
		err = run.Do(r.Context(), func() {
			initial = h.join(c, after, resume)
		})
		if err != nil {
			// The join task may still run after Do gave up on it.
			h.drop(c)
			h.logger.Warn("client join failed", "error", err)
			conn.Close()
			return
		}

		h.logger.Debug("client connected", "client", c.id, "frames", len(initial))
		go h.readLoop(c)
		h.writeLoop(c, initial)
	})
}

// SnapshotHandler serves the current tree as a JSON reset frame.
func (h *Hub) SnapshotHandler(run Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var frame Frame
		if err := run.Do(r.Context(), func() { frame = h.Snapshot() }); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(frame); err != nil {
			h.logger.Warn("snapshot write failed", "error", err)
		}
	})
}

// join registers c and returns the frames it must receive first: the
// missed history when resuming is possible, otherwise a reset frame.
func (h *Hub) join(c *client, after uint64, resume bool) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.gone {
		return nil
	}
	if h.closed {
		close(c.send)
		return nil
	}
	h.clients[c] = struct{}{}

	if resume && after == h.seq {
		return nil
	}
	if resume && after < h.seq {
		if frames := h.history.Frames(after, h.seq); frames != nil {
			return frames
		}
	}

	data, err := Frame{Seq: h.seq, Reset: true, Ops: h.host.Snapshot()}.Encode()
	if err != nil {
		h.logger.Error("snapshot encode failed", "error", err)
		return nil
	}
	return [][]byte{data}
}

func parseAfter(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	c.gone = true
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every client. Later connections are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// readLoop discards client messages and drops the client when the
// connection fails or closes.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Warn("read error", "client", c.id, "error", err)
			}
			return
		}
	}
}

// writeLoop sends initial and then every queued frame until the client's
// queue is closed.
func (h *Hub) writeLoop(c *client, initial [][]byte) {
	defer c.conn.Close()

	for _, data := range initial {
		if !h.write(c, data) {
			h.drop(c)
			return
		}
	}
	for data := range c.send {
		if !h.write(c, data) {
			h.drop(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) write(c *client, data []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn("client write failed",
			"client", c.id,
			"error", rfxerrors.New("S002").Wrap(err))
		return false
	}
	return true
}

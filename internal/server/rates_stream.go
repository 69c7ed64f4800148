package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/fxcalc/internal/rates"
)

const (
	streamInterval  = 30 * time.Second
	streamWriteWait = 10 * time.Second
)

// StreamHandler pushes the current rate snapshot to websocket clients on a
// fixed interval. Each client gets its own goroutine; a slow client only
// stalls itself.
type StreamHandler struct {
	rateService *rates.Service
	log         zerolog.Logger

	mu     sync.Mutex
	closed bool
	cancel map[*websocket.Conn]context.CancelFunc
}

// NewStreamHandler creates a new rate stream handler
func NewStreamHandler(rateService *rates.Service, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		rateService: rateService,
		log:         log.With().Str("handler", "rates_stream").Logger(),
		cancel:      make(map[*websocket.Conn]context.CancelFunc),
	}
}

// HandleStream handles GET /api/rates/stream
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Same-origin enforcement is handled by the CORS layer; the UI and
		// API are served from one host.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	if !h.register(conn, cancel) {
		cancel()
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unregister(conn)

	h.log.Debug().Msg("Rate stream client connected")
	h.serve(ctx, conn)
}

// serve pushes the current snapshot immediately, then on every tick.
func (h *StreamHandler) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close(websocket.StatusNormalClosure, "")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		if err := h.push(ctx, conn); err != nil {
			h.log.Debug().Err(err).Msg("Rate stream client disconnected")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn) error {
	snap := h.rateService.GetSnapshot(ctx)

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	return wsjson.Write(writeCtx, conn, snap)
}

func (h *StreamHandler) register(conn *websocket.Conn, cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.cancel[conn] = cancel
	return true
}

func (h *StreamHandler) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel, ok := h.cancel[conn]; ok {
		cancel()
		delete(h.cancel, conn)
	}
}

// Close disconnects all clients and rejects new ones. Called on shutdown.
func (h *StreamHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, cancel := range h.cancel {
		cancel()
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.cancel, conn)
	}
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard only
	},
}

// StateHandler pushes pipeline status updates over a WebSocket. Each
// connection gets its own subscription; a slow client only misses
// updates, it never stalls the pipeline or other clients.
type StateHandler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(pipeline Pipeline, logger *slog.Logger) *StateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateHandler{pipeline: pipeline, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	updates, cancel := h.pipeline.Subscribe()
	defer cancel()

	done := make(chan struct{})

	// The read loop only exists to notice the client going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current state immediately so the dashboard renders
	// without waiting for the next frame.
	if err := conn.WriteJSON(h.pipeline.Status()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case status := <-updates:
			if err := conn.WriteJSON(status); err != nil {
				return
			}
		}
	}
}

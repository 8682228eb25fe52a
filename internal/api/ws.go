package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/logger"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// WatchHandler streams pipeline progress events over a websocket.
// Subscribers only observe: a slow or dead client never stalls a run.
type WatchHandler struct {
	bus      *pipeline.EventBus
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(bus *pipeline.EventBus, log *logger.Logger) *WatchHandler {
	return &WatchHandler{
		bus:    bus,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and forwards events until the client
// disconnects
// GET /api/runs/watch
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe()
	defer cancel()

	// Drain client frames so close/ping handling works; we never expect data.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

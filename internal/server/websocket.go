package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/fleetsim/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   16 * 1024,
	EnableCompression: true,
	CheckOrigin:       func(*http.Request) bool { return true },
}

// handleWebSocket streams snapshots to a viewer until either side goes away.
// Anything the viewer sends is discarded.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	snapshots, unsubscribe := s.runner.Subscribe(s.config.SnapshotBuffer)
	defer unsubscribe()

	remote := conn.RemoteAddr().String()
	s.logger.Debug("viewer connected", log.String("remote_addr", remote))
	defer s.logger.Debug("viewer disconnected", log.String("remote_addr", remote))

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
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-gone:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if s.config.WriteTimeout > 0 {
				_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			}
			if err := conn.WriteJSON(snap); err != nil {
				s.logger.Debug("viewer write failed", log.String("remote_addr", remote), log.Error(err))
				return
			}
		}
	}
}

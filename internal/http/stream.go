package http

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/mauv0809/rivalry/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler upgrades to a websocket and pushes every realtime event of
// one match. Each connection holds exactly one subscription, released when
// the connection ends. Events missed while disconnected are not replayed;
// clients reload the match on reconnect.
func (s *Server) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("id")
		// Reading the match checks membership before upgrading.
		if _, err := s.Engine.LoadMatch(r.Context(), userFrom(r), matchID); err != nil {
			writeError(w, err)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade websocket", "error", err, "matchID", matchID)
			return
		}
		sub := s.Hub.Subscribe(realtime.MatchTopic(matchID))
		log.Info("Stream opened", "matchID", matchID, "user", userFrom(r))
		defer func() {
			sub.Close()
			conn.Close()
			log.Info("Stream closed", "matchID", matchID)
		}()

		// The read loop only watches for the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			conn.SetReadLimit(512)
			conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					log.Debug("Stream write failed", "error", err, "matchID", matchID)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-gone:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"debate-forum/internal/websocket"
)

func (s *Server) upgrader() *ws.Upgrader {
	return &ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range s.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return origin == ""
		},
	}
}

// HandleWebSocket subscribes an authenticated client to one debate's change feed.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1. Authenticate using JWT from query parameter
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}
		claims, err := s.Tokens.ValidateToken(tokenString)
		if err != nil {
			s.Logger.Debug("websocket auth failed", zap.Error(err))
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		debateID, err := uuid.Parse(r.URL.Query().Get("debateId"))
		if err != nil {
			http.Error(w, "Invalid debate ID format", http.StatusBadRequest)
			return
		}

		// 2. Upgrade connection
		conn, err := s.upgrader().Upgrade(w, r, nil)
		if err != nil {
			// The upgrader has already written the HTTP error.
			s.Logger.Warn("websocket upgrade failed", zap.Stringer("user_id", claims.UserID), zap.Error(err))
			return
		}

		// 3. Register and start pumps
		client := websocket.NewClient(s.Hub, conn, claims.UserID, debateID)
		s.Hub.Register(client)
		s.Logger.Debug("websocket client registered",
			zap.Stringer("user_id", claims.UserID), zap.Stringer("debate_id", debateID))

		go client.WritePump()
		go client.ReadPump()
	}
}

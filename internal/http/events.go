package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"wellness-backend-go/internal/services"
)

func (s *Server) EventsSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("token")
	if query == "" {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	claims, err := s.Tokens.Parse(query, services.TokenTypeAccess)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	revoked, err := s.Revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil || revoked {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	userID := claims.Subject
	s.Events.Add(userID, conn)
	s.Log.Debug("events socket opened", "user_id", userID)
	defer func() {
		s.Events.Remove(userID, conn)
		_ = conn.Close()
		s.Log.Debug("events socket closed", "user_id", userID)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// checkOrigin accepts any origin when CORS is not configured, otherwise only
// the configured ones. Requests without an Origin header are not browsers.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

package httpapi

import (
	"net/http"

	"wellness-backend-go/internal/services"
)

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := services.CaptureHealth(r.Context(), s.DB, s.StartedAt)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
		s.Log.Warn("health degraded", "database", report.Database)
	}
	WriteJSON(w, status, report)
}

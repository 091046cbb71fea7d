package httpapi

import (
	"net/http"

	"wellness-backend-go/internal/services"
)

type MoodChartResponse struct {
	Days  int                  `json:"days"`
	Items []services.MoodPoint `json:"items"`
}

type HabitStatsResponse struct {
	Days  int                  `json:"days"`
	Items []services.HabitStat `json:"items"`
}

func (s *Server) MoodChart(w http.ResponseWriter, r *http.Request) {
	days := services.ClampWindow(parseInt(r.URL.Query().Get("days"), services.DefaultWindowDays))
	points, err := services.MoodChart(s.DB, CurrentUserID(r), s.today(), days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MoodChartResponse{Days: days, Items: points})
}

func (s *Server) HabitStats(w http.ResponseWriter, r *http.Request) {
	days := services.ClampWindow(parseInt(r.URL.Query().Get("days"), services.DefaultWindowDays))
	today := s.today()
	stats, err := services.HabitStats(s.DB, CurrentUserID(r), today.AddDays(-days), today)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, HabitStatsResponse{Days: days, Items: stats})
}

func (s *Server) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := services.BuildMonthlySummary(r.Context(), s.DB, CurrentUserID(r), s.today(), s.Location)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := services.BuildDashboard(r.Context(), s.DB, CurrentUserID(r), s.today())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, dash)
}

package httpapi

import (
	"net/http"

	"wellness-backend-go/internal/models"
	"wellness-backend-go/internal/services"
)

type TodayMoodResponse struct {
	Mood        *models.Mood `json:"mood"`
	Suggestions []string     `json:"suggestions"`
}

func (s *Server) RecordMood(w http.ResponseWriter, r *http.Request) {
	var req services.MoodInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	result, err := services.RecordMood(s.DB, CurrentUserID(r), s.today(), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventMoodRecorded, result.Mood)
	WriteJSON(w, http.StatusOK, result)
}

// TodayMood answers 200 with a null mood when nothing was recorded today.
func (s *Server) TodayMood(w http.ResponseWriter, r *http.Request) {
	mood, err := services.TodayMood(r.Context(), s.DB, CurrentUserID(r), s.today())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := TodayMoodResponse{Mood: mood, Suggestions: []string{}}
	if mood != nil {
		resp.Suggestions = services.Suggestions(mood.MoodLevel)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) ListMoods(w http.ResponseWriter, r *http.Request) {
	page, err := services.ListMoods(s.DB, CurrentUserID(r), parseInt(r.URL.Query().Get("page"), 1))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellness-backend-go/internal/models"
	"wellness-backend-go/internal/services"
)

type HabitListResponse struct {
	Items []models.Habit `json:"items"`
}

type HabitLogListResponse struct {
	Items []models.HabitLog `json:"items"`
}

type TodayHabitsResponse struct {
	Date  models.Date           `json:"date"`
	Items []services.HabitToday `json:"items"`
}

func (s *Server) ListHabits(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true" || r.URL.Query().Get("active") == "1"
	habits, err := services.ListHabits(s.DB, CurrentUserID(r), activeOnly)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, HabitListResponse{Items: habits})
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req services.HabitInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	habit, err := services.CreateHabit(s.DB, CurrentUserID(r), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventHabitCreated, habit)
	WriteJSON(w, http.StatusCreated, habit)
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req services.HabitPatch
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	habit, err := services.UpdateHabit(s.DB, CurrentUserID(r), chi.URLParam(r, "habitId"), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventHabitUpdated, habit)
	WriteJSON(w, http.StatusOK, habit)
}

func (s *Server) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	habitID := chi.URLParam(r, "habitId")
	if err := services.DeleteHabit(s.DB, CurrentUserID(r), habitID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventHabitDeleted, map[string]string{"id": habitID})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	var req services.ToggleInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	entry, err := services.ToggleHabit(s.DB, CurrentUserID(r), chi.URLParam(r, "habitId"), s.today(), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventHabitToggled, entry)
	WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) HabitLogs(w http.ResponseWriter, r *http.Request) {
	fields := services.FieldErrors{}
	from := parseDateParam(fields, r, "from")
	to := parseDateParam(fields, r, "to")
	if err := fields.Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logs, err := services.ListHabitLogs(s.DB, CurrentUserID(r), chi.URLParam(r, "habitId"), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, HabitLogListResponse{Items: logs})
}

func (s *Server) TodayHabits(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	items, err := services.TodayHabits(r.Context(), s.DB, CurrentUserID(r), today)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TodayHabitsResponse{Date: today, Items: items})
}

func parseDateParam(fields services.FieldErrors, r *http.Request, name string) models.Date {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return models.Date{}
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		fields.Add(name, "The "+name+" must be a valid date (YYYY-MM-DD).")
	}
	return date
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wellness-backend-go/internal/services"
)

func (s *Server) ListJournal(w http.ResponseWriter, r *http.Request) {
	page, err := services.ListJournal(s.DB, CurrentUserID(r), parseInt(r.URL.Query().Get("page"), 1))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req services.JournalInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	entry, err := services.CreateJournalEntry(s.DB, CurrentUserID(r), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventJournalCreated, entry)
	WriteJSON(w, http.StatusCreated, entry)
}

func (s *Server) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := services.GetJournalEntry(s.DB, CurrentUserID(r), chi.URLParam(r, "entryId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) UpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req services.JournalPatch
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	entry, err := services.UpdateJournalEntry(s.DB, CurrentUserID(r), chi.URLParam(r, "entryId"), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventJournalUpdated, entry)
	WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) DeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryId")
	if err := services.DeleteJournalEntry(s.DB, CurrentUserID(r), entryID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, services.EventJournalDeleted, map[string]string{"id": entryID})
	w.WriteHeader(http.StatusNoContent)
}

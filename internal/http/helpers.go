package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"wellness-backend-go/internal/services"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. An empty body decodes as {} so
// required-field checks report a 422 instead of a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.ErrValidation(map[string]string{
			typeErr.Field: "The " + typeErr.Field + " field has an invalid type.",
		})
	}
	return services.ErrBadRequest("Invalid payload")
}

// writeServiceError writes the status carried by a ServiceError; anything
// else is logged and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serr services.ServiceError
	if errors.As(err, &serr) {
		if serr.Status == http.StatusUnprocessableEntity {
			WriteValidation(w, serr.Message, serr.Fields)
			return
		}
		WriteError(w, serr.Status, serr.Message)
		return
	}
	s.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "user_id", CurrentUserID(r), "err", err)
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) publish(r *http.Request, eventType string, data interface{}) {
	if s.Events == nil {
		return
	}
	userID := CurrentUserID(r)
	if !s.Events.Publish(userID, eventType, data) {
		s.Log.Warn("event dropped", "type", eventType, "user_id", userID)
	}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value < 1 {
		return fallback
	}
	return value
}

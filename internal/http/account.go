package httpapi

import (
	"net/http"

	"wellness-backend-go/internal/services"
)

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user, err := services.UpdateProfile(s.DB, CurrentUserID(r), s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req services.ChangePasswordInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := services.ChangePassword(s.DB, s.Tokens, CurrentUserID(r), s.now(), req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes the caller and revokes the token used for the call.
func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := CurrentClaims(r)
	if err := services.DeleteAccount(s.DB, claims.Subject); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		s.Log.Warn("revoke after account deletion", "user_id", claims.Subject, "err", err)
	}
	s.Log.Info("account deleted", "user_id", claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

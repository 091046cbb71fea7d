package httpapi

import (
	"net/http"

	"wellness-backend-go/internal/models"
	"wellness-backend-go/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	services.TokenPair
	User models.User `json:"user"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user, err := services.RegisterUser(s.DB, s.Tokens, s.now(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Log.Info("user registered", "user_id", user.ID)
	WriteJSON(w, http.StatusCreated, TokenResponse{TokenPair: pair, User: user})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	fields := services.FieldErrors{}
	if services.NormalizeEmail(req.Email) == "" {
		fields.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		fields.Add("password", "The password field is required.")
	}
	if err := fields.Err(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	user, err := services.Authenticate(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, User: user})
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	claims, err := s.Tokens.Parse(req.RefreshToken, services.TokenTypeRefresh)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	revoked, err := s.Revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if revoked {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	user, err := services.GetUser(s.DB, claims.Subject)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	if err := s.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{TokenPair: pair, User: user})
}

// Logout revokes the access token used for the call and, when supplied, the
// refresh token of the same session.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	claims := CurrentClaims(r)
	if err := s.Revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.RefreshToken != "" {
		refresh, err := s.Tokens.Parse(req.RefreshToken, services.TokenTypeRefresh)
		if err == nil && refresh.Subject == claims.Subject {
			if err := s.Revoker.Revoke(r.Context(), refresh.ID, refresh.ExpiresAt.Time); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := services.GetUser(s.DB, CurrentUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

package http

import (
	"net/http"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/services"
)

type preferencesResponse struct {
	Currency core.CurrencyCode `json:"currency"`
	Locale   core.Locale       `json:"locale"`
	Theme    core.Theme        `json:"theme"`
}

type userResponse struct {
	ID          int64               `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	Preferences preferencesResponse `json:"preferences"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newPreferencesResponse(p core.Preferences) preferencesResponse {
	return preferencesResponse{Currency: p.Currency, Locale: p.Locale, Theme: p.Theme}
}

func newUserResponse(u core.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Preferences: newPreferencesResponse(u.Preferences),
		CreatedAt:   u.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.Register(r.Context(), services.RegisterInput{
		Username: sanitizeInput(req.Username),
		Email:    sanitizeInput(req.Email),
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token     string       `json:"token"`
		ExpiresAt time.Time    `json:"expires_at"`
		User      userResponse `json:"user"`
	}{res.Token, res.ExpiresAt, newUserResponse(res.User)})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Users.Profile(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(u))
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.deps.Users.Preferences(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreferencesResponse(p))
}

// handleUpdatePreferences applies a partial update; absent fields keep
// their current value.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Currency *string `json:"currency"`
		Locale   *string `json:"locale"`
		Theme    *string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.deps.Users.UpdatePreferences(r.Context(), uid, services.PreferencesInput{
		Currency: req.Currency,
		Locale:   req.Locale,
		Theme:    req.Theme,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreferencesResponse(p))
}

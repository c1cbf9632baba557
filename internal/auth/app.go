package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"EcoFinds/pkg/kit"
)

const (
	minPasswordLen = 8

	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second

	defaultTokenTTL = 15 * time.Minute
)

// Identity is what a signed-in user looks like to the rest of the app.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Role     string
}

// SessionOpener starts marketplace state for a user who just signed in
// and returns its id.
type SessionOpener interface {
	OpenSession(id Identity) string
}

type Server struct {
	Log      *zap.Logger
	Store    UserStore
	JWT      *TokenMaker
	Sessions SessionOpener
	TokenTTL time.Duration
}

func (s *Server) Routes() http.Handler {
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r := chi.NewRouter()
	r.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
	r.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
	r.With(RequireToken(s.JWT)).Get("/whoami", s.handleWhoAmI)
	return r
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	req.Username = strings.TrimSpace(req.Username)

	if req.Email == "" || req.Password == "" || req.Username == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email/password/username required", nil)
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		kit.WriteError(w, r, http.StatusBadRequest, "password too short", map[string]any{"min_len": minPasswordLen})
		return
	}

	u := User{
		ID:       "u_" + uuid.NewString(),
		Email:    req.Email,
		Username: req.Username,
		Role:     RoleUser,
	}

	err := s.Store.Create(r.Context(), u, req.Password)
	switch {
	case errors.Is(err, ErrEmailExists):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
		return
	case err != nil:
		s.log().Error("create user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.log().Info("account created", zap.String("user_id", u.ID))
	w.WriteHeader(http.StatusCreated)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	SessionID   string `json:"session_id"`
	ExpiresAt   string `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if normalizeEmail(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "email/password required", nil)
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	id := Identity{UserID: u.ID, Email: u.Email, Username: u.Username, Role: u.Role}
	sid := s.Sessions.OpenSession(id)

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	tok, err := s.JWT.New(id, sid, ttl)
	if err != nil {
		s.log().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{
		AccessToken: tok,
		SessionID:   sid,
		ExpiresAt:   time.Now().Add(ttl).UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"username":   claims.Username,
		"role":       claims.Role,
		"session_id": claims.SessionID,
	})
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

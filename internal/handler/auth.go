package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/auth"
	"github.com/sakif/student-roster/internal/model"
	"github.com/sakif/student-roster/internal/service"
)

// Authenticator is the part of service.AuthService the handlers call.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context, userID int64) (*model.PublicUser, error)
}

var _ Authenticator = (*service.AuthService)(nil)

// AuthHandler serves registration, login and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /api/auth/register
//   - HandleLogin    → POST /api/auth/login
//   - HandleMe       → GET  /api/auth/me (behind RequireAuth)
//
// There is no logout endpoint: tokens are stateless and the client simply
// discards its copy.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(a Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
	Message string           `json:"message"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register  {name, email, password}
// 201 {id, message}; 400 on missing fields, short password or taken email.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		ID:      user.ID,
		Message: "User registered successfully",
	})
}

// HandleLogin exchanges credentials for a bearer token.
//
// HTTP: POST /api/auth/login  {email, password}
// 200 {token, user, message}; 401 with one fixed message for every
// credential failure.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "Login successful",
	})
}

// HandleMe returns the caller's public profile.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.NoToken())
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

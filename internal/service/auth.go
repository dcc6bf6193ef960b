// Package service contains the business logic layer.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not *sqlite.DB, so tests pass
// in-memory fakes and nothing here imports SQL.
//
// AuthService sits between the HTTP handlers and the credential store:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), TokenService (JWT)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/auth"
	"github.com/sakif/student-roster/internal/model"
	"github.com/sakif/student-roster/internal/repository"
)

// Registration rules.
const (
	MinPasswordLength = 6

	MsgRegisterFieldsRequired = "Name, email, and password are required"
	MsgPasswordTooShort       = "Password must be at least 6 characters"
	MsgPasswordTooLong        = "Password must be at most 72 bytes"
)

// dummyPassword is hashed once at construction. Logins for unknown emails
// compare against that hash so they take about as long as real ones.
const dummyPassword = "roster-timing-equaliser"

// AuthService handles registration, login and the current-user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
	dummyHash string
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) (*AuthService, error) {
	dummyHash, err := passwords.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("service/auth: preparing dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

// AuthResult is returned by Login: the signed token plus the public part of
// the user record.
type AuthResult struct {
	User  model.PublicUser
	Token string
}

// Register creates an account. It does not log the user in.
//
// Name and email are trimmed; the password is used exactly as given.
// A second registration for the same email (in any letter case) fails with
// apperror.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", MsgRegisterFieldsRequired)
	}
	// Minimum length counts characters; the 72-byte bcrypt limit counts bytes.
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", MsgPasswordTooShort)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", MsgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login checks credentials and issues a token.
//
// EMAIL ENUMERATION:
// An unknown email and a wrong password return the identical
// apperror.InvalidCredentials, and both paths run one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		s.passwords.Verify(s.dummyHash, password)
		return nil, apperror.InvalidCredentials()
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return &AuthResult{
		User:  user.Public(),
		Token: token,
	}, nil
}

// Me returns the public record of the token's owner. A token can outlive
// its user row, in which case this is NotFound.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}

	pub := user.Public()
	return &pub, nil
}

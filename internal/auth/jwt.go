// Package auth provides password hashing, JWT issuing/verification and the
// HTTP authentication gate.
//
// AUTHENTICATION FLOW:
//  1. POST /api/auth/login checks the password and issues a signed JWT
//  2. The client sends it back as "Authorization: Bearer <token>"
//  3. RequireAuth verifies the token and puts the claims in the request
//     context; handlers read the caller's id from there
//
// Tokens are stateless: nothing is stored server-side, so a token stays
// valid until it expires and logout is a client-side discard.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"42","email":"ann@x.com","name":"Ann","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/student-roster/internal/apperror"
)

// Defaults applied by NewTokenService for zero-valued TokenConfig fields.
const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	DefaultIssuer   = "student-roster"
	MinSecretLength = 16
)

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the identity carried inside a token.
type Claims struct {
	UserID int64
	Email  string
	Name   string
}

// TokenService signs and verifies HS256 tokens with one process-wide
// secret. The secret is never logged or exposed.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService validates cfg and returns a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
	}, nil
}

// tokenClaims is the JWT payload. The user id travels as the standard
// "sub" claim, email and name as private claims.
type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Issue signs a token for c that expires after the configured TTL.
func (s *TokenService) Issue(c Claims) (string, error) {
	return s.IssueWithTTL(c, s.ttl)
}

// IssueWithTTL signs a token with a custom lifetime. A negative ttl yields
// an already-expired token, which tests use.
func (s *TokenService) IssueWithTTL(c Claims, ttl time.Duration) (string, error) {
	if c.UserID <= 0 {
		return "", errors.New("auth: cannot issue token without a user id")
	}

	now := time.Now()
	tc := tokenClaims{
		Email: c.Email,
		Name:  c.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(c.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses tokenStr and returns its claims.
//
// Bad signature, wrong algorithm, wrong issuer, expiry, malformed input and
// a missing subject all return the same apperror.InvalidToken; the reason
// is not exposed to the caller.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	var tc tokenClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tc,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, apperror.InvalidToken()
	}

	userID, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, apperror.InvalidToken()
	}

	return &Claims{
		UserID: userID,
		Email:  tc.Email,
		Name:   tc.Name,
	}, nil
}

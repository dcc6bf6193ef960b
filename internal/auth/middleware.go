package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/student-roster/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key could be
// read or shadowed by any package that knows the string. A package-private
// type means only this package can create the key.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth gates protected routes on a Bearer token.
//
// It reads "Authorization: Bearer <token>", verifies it and stores the
// claims in the request context. Failures stop the chain with 401:
//   - header missing, or not of the form "Bearer <token>" → NoToken
//   - token present but rejected by Verify → InvalidToken
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims RequireAuth stored for this request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated user's id.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // route was not behind RequireAuth
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return c.UserID, c.UserID > 0
}

// WithClaims returns a copy of ctx carrying c. Handler tests use it to skip
// the token round-trip.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func extractClaims(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return nil, apperror.NoToken()
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.NoToken()
	}

	return tokens.Verify(token)
}

// writeUnauthorized sends {"error": "..."} with 401. The handler package has
// its own writer; this one exists so auth does not import handler.
func writeUnauthorized(w http.ResponseWriter, err error) {
	msg := apperror.MsgInvalidToken
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the current-user value.
type contextKey string

const currentUserKey contextKey = "currentUser"

// RequireAuth enforces authentication on protected routes.
//
// It extracts the bearer token from the Authorization header, verifies it,
// and loads the user whose email is in the subject claim. The resolved
// *model.User is stored in the request context for the duration of that
// single request — no session state is kept between requests.
//
// Missing/invalid/expired token, a token without a subject, or a subject
// with no matching user all end the chain with 401 and a Bearer challenge.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser retrieves the authenticated user from the request context.
// Returns (nil, false) if the request is anonymous.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser verifies the bearer token and looks up the corresponding user.
func resolveUser(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.Verify(tokenStr)
	if err != nil {
		return nil, err
	}

	// The subject is the email at issuance time. Look the account up fresh
	// on every request — a token for a deleted user resolves to nothing.
	user, err := users.GetByEmail(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/places-api/internal/api/shared"
	"github.com/phrazzld/places-api/internal/service/auth"
)

// ErrorHandler writes the response for a failed authentication.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// AuthMiddleware requires a valid session token on the wrapped routes.
type AuthMiddleware struct {
	tokens  auth.TokenService
	onError ErrorHandler
}

// NewAuthMiddleware creates a new AuthMiddleware. Authentication failures
// are passed to onError; a nil onError uses RespondAuthError.
func NewAuthMiddleware(tokens auth.TokenService, onError ErrorHandler) *AuthMiddleware {
	if onError == nil {
		onError = RespondAuthError
	}
	return &AuthMiddleware{tokens: tokens, onError: onError}
}

// Authenticate validates the bearer token in the Authorization header and
// puts the token's user ID into the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			m.onError(w, r, err)
			return
		}

		claims, err := m.tokens.ValidateToken(r.Context(), token)
		if err != nil {
			m.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithUserID(r.Context(), claims.UserID)))
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: unsupported authorization scheme", auth.ErrInvalidToken)
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}

// RespondAuthError answers an authentication failure without the api
// package's error mapping.
func RespondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "token expired", err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "authentication failed", err)
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "authentication error", err)
	}
}

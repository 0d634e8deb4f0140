package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CameronXie/user-session-api/internal/api/rest/response"
	"github.com/CameronXie/user-session-api/internal/token"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

const (
	bearerPrefix = "bearer"

	authRequiredCode  = "authorization_required"
	invalidTokenCode  = "invalid_token"
	internalErrorCode = "internal_error"

	authHeaderMissingMessage       = "authorization header missing"
	invalidAuthHeaderFormatMessage = "invalid authorization header format"
	invalidTokenMessage            = "invalid token"
	internalServerErrorMessage     = "internal server error"
)

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// JWTAuthenticationMiddleware validates bearer tokens and stores the token subject (the user ID)
// in the request context.
type JWTAuthenticationMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// Handle rejects requests without a valid bearer token before they reach next.
func (m *JWTAuthenticationMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.JSONErrorResponse(w, http.StatusUnauthorized, authRequiredCode, authHeaderMissingMessage)
			return
		}

		tokenString, err := extractToken(authHeader)
		if err != nil {
			m.logger.WarnContext(r.Context(), "failed to extract token", "error", err)
			response.JSONErrorResponse(w, http.StatusUnauthorized, invalidTokenCode, invalidAuthHeaderFormatMessage)
			return
		}

		userID, err := m.verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, token.ErrKeyUnavailable) {
				m.logger.ErrorContext(r.Context(), "failed to fetch public key", "error", err)
				response.JSONErrorResponse(w, http.StatusInternalServerError, internalErrorCode, internalServerErrorMessage)
				return
			}

			m.logger.WarnContext(r.Context(), "failed to verify token", "error", err)
			response.JSONErrorResponse(w, http.StatusUnauthorized, invalidTokenCode, invalidTokenMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// extractToken extracts a Bearer token from the Authorization header.
// Returns the extracted token or an error if the header format is invalid.
func extractToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}

	return strings.TrimSpace(parts[1]), nil
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserIDFromContext extracts the authenticated user ID from ctx.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// NewJWTAuthenticationMiddleware returns a new JWTAuthenticationMiddleware using verifier.
func NewJWTAuthenticationMiddleware(verifier TokenVerifier, logger *slog.Logger) Middleware {
	return &JWTAuthenticationMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

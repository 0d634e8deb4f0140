package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CameronXie/user-session-api/internal/api/rest/middlewares"
	"github.com/CameronXie/user-session-api/internal/api/rest/response"
	"github.com/CameronXie/user-session-api/internal/authn"
	"github.com/CameronXie/user-session-api/internal/metrics"
)

const (
	maxRequestBodyBytes = 1 << 20

	invalidRequestCode     = "invalid_request"
	invalidEmailCode       = "invalid_email"
	invalidCredentialsCode = "invalid_credentials"
	authFailedCode         = "authentication_failed"
	internalErrorCode      = "internal_error"

	invalidRequestBodyMessage  = "Invalid request format"
	emailRequiredMessage       = "Email is required"
	authFailedMessage          = "Authentication failed"
	internalServerErrorMessage = "Internal server error"
)

// SessionsConfig is shared configuration for the session endpoints.
type SessionsConfig struct {
	// GenericAuthErrors reports unknown emails with the same code and message as wrong passwords.
	GenericAuthErrors bool
}

// SignInRecorder records the outcome of every sign-in attempt.
type SignInRecorder interface {
	RecordSignIn(outcome string)
}

// SignInRequest is the sign-in payload: {"user": {"email": "", "password": ""}}.
type SignInRequest struct {
	User struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

// UserResponse wraps the public user projection.
type UserResponse struct {
	Success bool              `json:"success"`
	User    *authn.PublicUser `json:"user"`
}

// SessionsHandler serves sign-in, sign-out and current-user requests.
type SessionsHandler struct {
	authenticator authn.Authenticator
	recorder      SignInRecorder
	config        *SessionsConfig
	logger        *slog.Logger
}

// SignIn authenticates the posted credentials and returns the user with a signed token.
func (h *SessionsHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	req := new(SignInRequest)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid sign in request", "error", err)
		h.recorder.RecordSignIn(metrics.OutcomeInvalidRequest)
		response.JSONErrorResponse(w, http.StatusBadRequest, invalidRequestCode, invalidRequestBodyMessage)
		return
	}

	user, err := h.authenticator.SignIn(r.Context(), authn.Credentials{
		Email:    req.User.Email,
		Password: req.User.Password,
	})
	if err != nil {
		h.writeSignInError(w, r, err)
		return
	}

	h.recorder.RecordSignIn(metrics.OutcomeSuccess)
	response.JSONResponse(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// writeSignInError maps sign-in failures to HTTP responses.
func (h *SessionsHandler) writeSignInError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, authn.ErrEmailRequired) {
		h.recorder.RecordSignIn(metrics.OutcomeInvalidRequest)
		response.JSONErrorResponse(w, http.StatusBadRequest, invalidRequestCode, emailRequiredMessage)
		return
	}

	authErr, ok := authn.IsAuthError(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "failed to sign in user", "error", err)
		h.recorder.RecordSignIn(metrics.OutcomeError)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalErrorCode, internalServerErrorMessage)
		return
	}

	switch authErr.Kind {
	case authn.KindUserNotFound:
		h.recorder.RecordSignIn(metrics.OutcomeUserNotFound)
		if !h.config.GenericAuthErrors {
			// Distinguishing this case reveals whether an email is registered.
			response.JSONErrorResponse(w, http.StatusUnauthorized, invalidEmailCode, authErr.Message)
			return
		}
		response.JSONErrorResponse(w, http.StatusUnauthorized, invalidCredentialsCode, authn.InvalidEmailOrPasswordMessage)
	case authn.KindInvalidPassword:
		h.recorder.RecordSignIn(metrics.OutcomeInvalidPassword)
		response.JSONErrorResponse(w, http.StatusUnauthorized, invalidCredentialsCode, authErr.Message)
	default:
		h.logger.ErrorContext(r.Context(), "unknown authentication error kind", "kind", authErr.Kind)
		h.recorder.RecordSignIn(metrics.OutcomeError)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalErrorCode, internalServerErrorMessage)
	}
}

// SignOut ends the caller's session. Tokens are stateless, so the client discards its token.
func (h *SessionsHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserIDFromContext(r.Context())
	if !ok {
		response.JSONErrorResponse(w, http.StatusUnauthorized, authFailedCode, authFailedMessage)
		return
	}

	h.logger.InfoContext(r.Context(), "user signed out", "user_id", userID)
	response.JSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the authenticated user.
func (h *SessionsHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserIDFromContext(r.Context())
	if !ok {
		response.JSONErrorResponse(w, http.StatusUnauthorized, authFailedCode, authFailedMessage)
		return
	}

	user, err := h.authenticator.CurrentUser(r.Context(), userID)
	if err != nil {
		if _, ok := authn.IsAuthError(err); ok {
			h.logger.WarnContext(r.Context(), "token subject does not resolve to a user", "user_id", userID)
			response.JSONErrorResponse(w, http.StatusUnauthorized, authFailedCode, authFailedMessage)
			return
		}

		h.logger.ErrorContext(r.Context(), "failed to load current user", "user_id", userID, "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalErrorCode, internalServerErrorMessage)
		return
	}

	response.JSONResponse(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// NewSessionsHandler creates the session endpoints handler.
func NewSessionsHandler(
	authenticator authn.Authenticator,
	recorder SignInRecorder,
	config *SessionsConfig,
	logger *slog.Logger,
) *SessionsHandler {
	if config == nil {
		config = &SessionsConfig{}
	}

	return &SessionsHandler{
		authenticator: authenticator,
		recorder:      recorder,
		config:        config,
		logger:        logger,
	}
}

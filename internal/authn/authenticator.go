package authn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CameronXie/user-session-api/internal/domain"
	"github.com/CameronXie/user-session-api/internal/repository"
)

// Credentials are the sign-in inputs. Password must never be logged.
type Credentials struct {
	Email    string
	Password string
}

// PublicUser is the externally visible projection of a user.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token,omitempty"`
}

// UserDirectory resolves users and verifies their passwords.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	VerifyPassword(ctx context.Context, user *domain.User, password string) (bool, error)
}

// TokenIssuer mints a signed token for a subject.
type TokenIssuer interface {
	IssueToken(subject string) (string, error)
}

type Authenticator interface {
	SignIn(ctx context.Context, credentials Credentials) (*PublicUser, error)
	CurrentUser(ctx context.Context, userID string) (*PublicUser, error)
}

type authenticator struct {
	directory   UserDirectory
	tokenIssuer TokenIssuer
	logger      *slog.Logger
}

// SignIn authenticates credentials and returns the user projection with a freshly issued token.
// Credential failures are returned as *AuthError; any other error is an internal failure.
func (a *authenticator) SignIn(ctx context.Context, credentials Credentials) (*PublicUser, error) {
	if credentials.Email == "" {
		return nil, ErrEmailRequired
	}

	user, err := a.directory.FindByEmail(ctx, credentials.Email)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			a.logger.WarnContext(ctx, "sign in attempt for non-existent user", "email", credentials.Email)
			return nil, newUserNotFoundError()
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	ok, err := a.directory.VerifyPassword(ctx, user, credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		a.logger.WarnContext(ctx, "sign in attempt with invalid password", "user_id", user.ID)
		return nil, newInvalidPasswordError()
	}

	token, err := a.tokenIssuer.IssueToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("issue token for user %s: %w", user.ID, err)
	}

	a.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)

	projection := toPublicUser(user)
	projection.Token = token
	return projection, nil
}

// CurrentUser resolves the user behind an authenticated subject.
func (a *authenticator) CurrentUser(ctx context.Context, userID string) (*PublicUser, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, newUserNotFoundError()
	}

	user, err := a.directory.FindByID(ctx, id)
	if err != nil {
		var notFoundErr *repository.NotFoundError
		if errors.As(err, &notFoundErr) {
			return nil, newUserNotFoundError()
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return toPublicUser(user), nil
}

func toPublicUser(user *domain.User) *PublicUser {
	return &PublicUser{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// NewAuthenticator creates an Authenticator backed by directory and tokenIssuer.
func NewAuthenticator(directory UserDirectory, tokenIssuer TokenIssuer, logger *slog.Logger) Authenticator {
	return &authenticator{
		directory:   directory,
		tokenIssuer: tokenIssuer,
		logger:      logger,
	}
}

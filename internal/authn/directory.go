package authn

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/CameronXie/user-session-api/internal/domain"
	"github.com/CameronXie/user-session-api/internal/password"
)

// UserRepository is implemented by the postgres, sqlstore and memory repositories.
// Lookups that miss return *repository.NotFoundError.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// PasswordVerifier checks a plaintext password against a stored hash and returns
// password.ErrMismatch when they differ.
type PasswordVerifier interface {
	Verify(hash, password string) error
}

type directory struct {
	users    UserRepository
	verifier PasswordVerifier
}

func (d *directory) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.users.GetUserByEmail(ctx, email)
}

func (d *directory) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return d.users.GetUserByID(ctx, id)
}

func (d *directory) VerifyPassword(_ context.Context, user *domain.User, plaintext string) (bool, error) {
	err := d.verifier.Verify(user.PasswordHash, plaintext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, password.ErrMismatch):
		return false, nil
	default:
		return false, err
	}
}

// NewDirectory combines a user repository and a password verifier into a UserDirectory.
func NewDirectory(users UserRepository, verifier PasswordVerifier) UserDirectory {
	return &directory{users: users, verifier: verifier}
}

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CameronXie/user-session-api/internal/domain"
	"github.com/CameronXie/user-session-api/internal/repository"
)

// UserRepository is a read-only, in-memory user store keyed by email.
// It is intended for local development and tests; production deployments should
// use the postgres or sqlstore repositories.
type UserRepository struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User
}

// NewUserRepository builds a repository from email to bcrypt password hash pairs.
// User IDs are derived from the email so they are stable across restarts.
func NewUserRepository(passwordHashes map[string]string) *UserRepository {
	r := &UserRepository{
		byEmail: make(map[string]*domain.User, len(passwordHashes)),
		byID:    make(map[uuid.UUID]*domain.User, len(passwordHashes)),
	}

	createdAt := time.Now().UTC()
	for email, hash := range passwordHashes {
		user := &domain.User{
			ID:           UserID(email),
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    createdAt,
		}
		r.byEmail[email] = user
		r.byID[user.ID] = user
	}

	return r
}

// UserID returns the deterministic ID assigned to email.
func UserID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
}

// GetUserByEmail retrieves a user by exact email match.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	user, ok := r.byEmail[email]
	if !ok {
		return nil, repository.NewUserNotFoundError("email", email)
	}

	u := *user
	return &u, nil
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, ok := r.byID[id]
	if !ok {
		return nil, repository.NewUserNotFoundError("id", id.String())
	}

	u := *user
	return &u, nil
}

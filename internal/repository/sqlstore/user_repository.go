// Package sqlstore implements the user repository on database/sql for drivers that use
// `?` placeholders, namely sqlite3 (github.com/mattn/go-sqlite3) and mysql
// (github.com/go-sql-driver/mysql).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CameronXie/user-session-api/internal/domain"
	"github.com/CameronXie/user-session-api/internal/repository"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByEmail retrieves a user by exact email match.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

	user, err := r.queryUser(ctx, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewUserNotFoundError("email", email)
		}
		return nil, fmt.Errorf("query user by email %s: %w", email, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`

	user, err := r.queryUser(ctx, query, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewUserNotFoundError("id", id.String())
		}
		return nil, fmt.Errorf("query user by id %s: %w", id, err)
	}

	return user, nil
}

func (r *UserRepository) queryUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		rawID     string
		user      domain.User
		createdAt time.Time
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&rawID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", rawID, err)
	}

	user.ID = id
	user.CreatedAt = createdAt.UTC()
	return &user, nil
}

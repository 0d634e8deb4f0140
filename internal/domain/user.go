package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a stored user account, including its password hash.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

package repository

import (
	"fmt"
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %s not found", e.Resource, e.Key, e.Value)
}

// NewUserNotFoundError returns a NotFoundError for the user resource.
func NewUserNotFoundError(key, value string) *NotFoundError {
	return &NotFoundError{Resource: UserResource, Key: key, Value: value}
}

// UserResource names the user resource in NotFoundError values.
const UserResource = "user"

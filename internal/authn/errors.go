package authn

import "errors"

// ErrorKind classifies why authentication failed.
type ErrorKind string

const (
	KindUserNotFound    ErrorKind = "user_not_found"
	KindInvalidPassword ErrorKind = "invalid_password"
)

// Messages carried by AuthError.
const (
	InvalidEmailMessage           = "Invalid email"
	InvalidEmailOrPasswordMessage = "Invalid email or password"
)

// ErrEmailRequired is returned when sign-in is attempted without an email.
var ErrEmailRequired = errors.New("email is required")

// AuthError is an authentication failure. Both kinds are credential failures; they are kept
// apart so the transport layer decides how much to reveal about account existence.
type AuthError struct {
	Kind    ErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// IsAuthError reports whether err is an AuthError and returns it.
func IsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

func newUserNotFoundError() *AuthError {
	return &AuthError{Kind: KindUserNotFound, Message: InvalidEmailMessage}
}

func newInvalidPasswordError() *AuthError {
	return &AuthError{Kind: KindInvalidPassword, Message: InvalidEmailOrPasswordMessage}
}

// Package common defines shared constants and sentinel errors used across
// the store, core auth and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrBodyTooLarge       = errors.New("request body too large")
	ErrRegistrationClosed = errors.New("open user registration is forbidden on this server")

	// Credential and identity errors.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrPrincipalNotFound  = errors.New("user not found")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrSamePassword       = errors.New("new password cannot be the same as the current password")

	// Authorization errors.
	ErrInactiveAccount       = errors.New("inactive user")
	ErrInsufficientPrivilege = errors.New("the user doesn't have enough privileges")
	ErrSuperuserSelfDelete   = errors.New("super users are not allowed to delete themselves")

	// Token errors. ErrInvalidToken is reported for unusable password reset
	// tokens; the remaining kinds classify why a token failed to decode.
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
)

// DetailedError attaches a client-facing message to one of the sentinels
// above. errors.Is still matches the sentinel.
type DetailedError struct {
	Kind   error
	Detail string
}

func (e *DetailedError) Error() string { return e.Detail }
func (e *DetailedError) Unwrap() error { return e.Kind }

// WithDetail wraps kind with a message safe to show to API clients.
func WithDetail(kind error, detail string) error {
	return &DetailedError{Kind: kind, Detail: detail}
}

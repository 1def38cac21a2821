package services

import (
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
)

const (
	minPasswordLen = 8
	maxFieldLen    = 255
	DefaultLimit   = 100
	MaxLimit       = 1000
)

func invalid(format string, args ...any) error {
	return common.WithDetail(common.ErrValidation, fmt.Sprintf(format, args...))
}

// validateEmail accepts a bare address only, no display name.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return invalid("value is not a valid email address")
	}
	if len(email) > maxFieldLen {
		return invalid("email must be at most %d characters", maxFieldLen)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > auth.MaxPasswordBytes {
		return invalid("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func validateFullName(name *string) error {
	if name != nil && utf8.RuneCountInString(*name) > maxFieldLen {
		return invalid("full_name must be at most %d characters", maxFieldLen)
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 1 || n > maxFieldLen {
		return invalid("title must be between 1 and %d characters", maxFieldLen)
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > maxFieldLen {
		return invalid("description must be at most %d characters", maxFieldLen)
	}
	return nil
}

// Page is an offset/limit window over a listing.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) validate() error {
	if p.Skip < 0 || p.Limit < 0 {
		return invalid("skip and limit must not be negative")
	}
	if p.Limit > MaxLimit {
		return invalid("limit must be at most %d", MaxLimit)
	}
	return nil
}

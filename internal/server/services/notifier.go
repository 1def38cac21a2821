package services

import (
	"context"

	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
)

// Notifier sends the emails services trigger. mail.Mailer implements it.
type Notifier interface {
	SendResetPassword(ctx context.Context, email, token string) error
	SendNewAccount(ctx context.Context, email, username string) error
	SendTestEmail(ctx context.Context, email string) error
	ResetPasswordMessage(email, token string) (mail.Message, error)
}

// Package mail renders and delivers transactional emails: password
// recovery, new account notices and test messages.
package mail

import (
	"context"
	"errors"
	"net/mail"
)

var (
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSendFailed     = errors.New("failed to send email")
	ErrInvalidConfig  = errors.New("invalid email configuration")
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
	Tag     string
}

// Validate checks the fields every sender relies on.
func (m Message) Validate() error {
	if m.To == "" || m.Subject == "" || m.HTML == "" {
		return ErrInvalidMessage
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	tplResetPassword = "reset_password.html"
	tplNewAccount    = "new_account.html"
	tplTestEmail     = "test_email.html"
)

// MailerConfig carries what templates need to know about the deployment.
type MailerConfig struct {
	ProjectName   string
	FrontendHost  string
	ResetTokenTTL time.Duration
}

// Mailer renders the transactional emails and hands them to a Sender.
type Mailer struct {
	sender    Sender
	cfg       MailerConfig
	templates map[string]*template.Template
}

func NewMailer(sender Sender, cfg MailerConfig) (*Mailer, error) {
	m := &Mailer{sender: sender, cfg: cfg, templates: map[string]*template.Template{}}

	for _, name := range []string{tplResetPassword, tplNewAccount, tplTestEmail} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		m.templates[name] = t
	}
	return m, nil
}

type templateData struct {
	ProjectName string
	Subject     string
	Email       string
	Username    string
	Link        string
	ValidHours  int
}

func (m *Mailer) render(name string, data templateData) (string, error) {
	data.ProjectName = m.cfg.ProjectName

	var buf bytes.Buffer
	if err := m.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (m *Mailer) link(path string, query url.Values) string {
	u := m.cfg.FrontendHost + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// ResetPasswordMessage renders the recovery email carrying token.
func (m *Mailer) ResetPasswordMessage(email, token string) (Message, error) {
	subject := fmt.Sprintf("%s - Password recovery for user %s", m.cfg.ProjectName, email)

	html, err := m.render(tplResetPassword, templateData{
		Subject:    subject,
		Email:      email,
		Link:       m.link("/reset-password", url.Values{"token": {token}}),
		ValidHours: int(m.cfg.ResetTokenTTL.Hours()),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: subject, HTML: html, Tag: "password-recovery"}, nil
}

// NewAccountMessage renders the welcome email. It never includes the password.
func (m *Mailer) NewAccountMessage(email, username string) (Message, error) {
	subject := fmt.Sprintf("%s - New account for user %s", m.cfg.ProjectName, username)

	html, err := m.render(tplNewAccount, templateData{
		Subject:  subject,
		Email:    email,
		Username: username,
		Link:     m.link("", nil),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: subject, HTML: html, Tag: "new-account"}, nil
}

func (m *Mailer) TestMessage(email string) (Message, error) {
	const subject = "Test email"

	html, err := m.render(tplTestEmail, templateData{Subject: subject, Email: email})
	if err != nil {
		return Message{}, err
	}
	return Message{To: email, Subject: subject, HTML: html, Tag: "test"}, nil
}

func (m *Mailer) send(ctx context.Context, msg Message, err error) error {
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) SendResetPassword(ctx context.Context, email, token string) error {
	msg, err := m.ResetPasswordMessage(email, token)
	return m.send(ctx, msg, err)
}

func (m *Mailer) SendNewAccount(ctx context.Context, email, username string) error {
	msg, err := m.NewAccountMessage(email, username)
	return m.send(ctx, msg, err)
}

func (m *Mailer) SendTestEmail(ctx context.Context, email string) error {
	msg, err := m.TestMessage(email)
	return m.send(ctx, msg, err)
}

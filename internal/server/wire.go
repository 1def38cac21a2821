package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/config"
	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophcrud/internal/server/services"
)

// NewLogger returns a text logger for local development and JSON elsewhere.
func NewLogger(cfg *config.Config, w io.Writer) logging.Logger {
	if cfg.Environment == config.EnvLocal {
		return logging.NewText(w, cfg.LogLevel)
	}
	return logging.NewJSON(w, cfg.LogLevel)
}

// OpenDatabase connects to PostgreSQL, waiting for it as configured.
func OpenDatabase(ctx context.Context, cfg *config.Config, log logging.Logger) (*sql.DB, error) {
	return dbx.Open(ctx, repomanager.DriverName, cfg.DatabaseDSN, cfg.DBConnectAttempts, cfg.DBConnectInterval, log)
}

// NewSender picks the mail transport: Postmark when configured, files in
// MailDevDir when set, otherwise the log.
func NewSender(cfg *config.Config, log logging.Logger) (mail.Sender, error) {
	switch {
	case cfg.EmailsEnabled():
		return mail.NewPostmarkSender(mail.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			FromEmail:    cfg.EmailsFromEmail,
			FromName:     cfg.SenderName(),
			SupportEmail: cfg.SupportEmail,
		})
	case cfg.MailDevDir != "":
		return mail.NewDevSender(cfg.MailDevDir, log), nil
	default:
		return mail.NewLogSender(log), nil
	}
}

// Components are the wired services shared by the server and the admin CLI.
type Components struct {
	DB       *sql.DB
	Repos    repomanager.RepositoryManager
	Hasher   *auth.PasswordHasher
	Codec    *auth.TokenCodec
	Resolver *auth.Resolver
	Login    *services.LoginService
	Users    *services.UserService
	Items    *services.ItemService
}

// Build wires every service on top of db.
func Build(cfg *config.Config, db *sql.DB, log logging.Logger) (*Components, error) {
	repos := repomanager.NewPostgresRepositoryManager()

	hasher := auth.NewPasswordHasher(auth.HasherOptions{
		Scheme:     cfg.PasswordScheme,
		BcryptCost: cfg.BcryptCost,
	}, log.With("module", "password"))

	codec := auth.NewTokenCodec([]byte(cfg.SecretKey))

	authn, err := auth.NewAuthenticator(repos.Users(db), hasher)
	if err != nil {
		return nil, err
	}

	sender, err := NewSender(cfg, log.With("module", "mail"))
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}
	mailer, err := mail.NewMailer(sender, mail.MailerConfig{
		ProjectName:   cfg.ProjectName,
		FrontendHost:  cfg.FrontendHost,
		ResetTokenTTL: cfg.ResetTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	svcLog := log.With("module", "services")

	return &Components{
		DB:       db,
		Repos:    repos,
		Hasher:   hasher,
		Codec:    codec,
		Resolver: auth.NewResolver(codec, repos.Users(db)),
		Login: services.NewLoginService(db, repos, authn, codec, hasher, mailer, services.LoginOptions{
			AccessTokenTTL: cfg.AccessTokenTTL,
			ResetTokenTTL:  cfg.ResetTokenTTL,
			EmailsEnabled:  cfg.EmailsEnabled(),
		}, svcLog),
		Users: services.NewUserService(db, repos, hasher, mailer, services.UserOptions{
			OpenRegistration: cfg.OpenRegistration,
			EmailsEnabled:    cfg.EmailsEnabled(),
		}, svcLog),
		Items: services.NewItemService(db, repos, svcLog),
	}, nil
}

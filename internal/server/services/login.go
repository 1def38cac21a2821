// Package services contains server-side business logic: login and password
// recovery, user administration and item management. Services receive the
// already resolved actor and run the authorization gates themselves.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/repomanager"
)

var errNoUserWithEmail = common.WithDetail(common.ErrorNotFound, "The user with this email does not exist in the system.")

// LoginService issues access tokens and runs the password recovery flow.
type LoginService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	authn         *auth.Authenticator
	codec         *auth.TokenCodec
	hasher        *auth.PasswordHasher
	notifier      Notifier
	accessTTL     time.Duration
	resetTTL      time.Duration
	emailsEnabled bool
	log           logging.Logger
}

// LoginOptions carries the token lifetimes and whether mail is delivered.
type LoginOptions struct {
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	EmailsEnabled  bool
}

func NewLoginService(db *sql.DB, m repomanager.RepositoryManager, authn *auth.Authenticator, codec *auth.TokenCodec,
	hasher *auth.PasswordHasher, notifier Notifier, opts LoginOptions, log logging.Logger) *LoginService {
	return &LoginService{
		db:            db,
		repomanager:   m,
		authn:         authn,
		codec:         codec,
		hasher:        hasher,
		notifier:      notifier,
		accessTTL:     opts.AccessTokenTTL,
		resetTTL:      opts.ResetTokenTTL,
		emailsEnabled: opts.EmailsEnabled,
		log:           log,
	}
}

// Login checks credentials and returns a bearer token for an active user.
func (s *LoginService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.authn.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireActive(user); err != nil {
		return nil, err
	}

	if s.hasher.NeedsRehash(user.HashedPassword) {
		s.rehash(ctx, user, password)
	}

	return s.IssueToken(user)
}

// rehash moves a verified password to the current scheme. Failures are only
// logged; the login itself already succeeded.
func (s *LoginService) rehash(ctx context.Context, user *models.User, password string) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hashed); err != nil {
		s.log.Warn(ctx, "password rehash not stored", "user_id", user.ID, "error", err)
		return
	}
	s.log.Info(ctx, "password rehashed", "user_id", user.ID, "scheme", s.hasher.Scheme())
}

// IssueToken mints a fresh access token for user.
func (s *LoginService) IssueToken(user *models.User) (*models.Token, error) {
	token, err := s.codec.IssueAccess(user.ID.String(), s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: error issuing token: %v", common.ErrorInternal, err)
	}
	return &models.Token{AccessToken: token, TokenType: common.TokenTypeBearer}, nil
}

// RecoverPassword emails a reset link when email belongs to a user. The
// outcome is the same whether or not the account exists.
func (s *LoginService) RecoverPassword(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Debug(ctx, "password recovery for unknown email")
			return nil
		}
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	token, err := s.codec.IssueReset(user.Email, s.resetTTL)
	if err != nil {
		return fmt.Errorf("%w: error issuing reset token: %v", common.ErrorInternal, err)
	}

	if err := s.notifier.SendResetPassword(ctx, user.Email, token); err != nil {
		s.log.Error(ctx, "password recovery email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

// RecoveryEmailContent renders the recovery email for email without sending
// it, so a superuser can inspect it. Unknown emails yield common.ErrorNotFound.
func (s *LoginService) RecoveryEmailContent(ctx context.Context, actor *models.User, email string) (*mail.Message, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errNoUserWithEmail
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	token, err := s.codec.IssueReset(user.Email, s.resetTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: error issuing reset token: %v", common.ErrorInternal, err)
	}
	msg, err := s.notifier.ResetPasswordMessage(user.Email, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &msg, nil
}

// ResetPassword sets a new password for the subject of a reset token.
func (s *LoginService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.codec.Decode(token, auth.PurposePasswordReset)
	if err != nil {
		s.log.Debug(ctx, "reset token rejected", "error", err)
		return common.WithDetail(common.ErrInvalidToken, "Invalid token")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errNoUserWithEmail
		}
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if err := auth.RequireActive(user); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: error hashing password: %v", common.ErrorInternal, err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// SendTestEmail delivers the test message; superusers only.
func (s *LoginService) SendTestEmail(ctx context.Context, actor *models.User, email string) error {
	if err := auth.RequireSuperuser(actor); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.notifier.SendTestEmail(ctx, email); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

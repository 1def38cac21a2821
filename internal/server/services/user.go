package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var (
	errEmailTaken       = common.WithDetail(common.ErrConflict, "The user with this email already exists in the system")
	errUserNotFound     = common.WithDetail(common.ErrorNotFound, "User not found")
	errNoUserWithID     = common.WithDetail(common.ErrorNotFound, "The user with this id does not exist in the system")
	errIncorrectPass    = common.WithDetail(common.ErrIncorrectPassword, "Incorrect password")
	errSamePassword     = common.WithDetail(common.ErrSamePassword, "New password cannot be the same as the current one")
	errSelfDeleteDenied = common.WithDetail(common.ErrSuperuserSelfDelete, "Super users are not allowed to delete themselves")
)

// UserOptions carries the registration policy and mail switch.
type UserOptions struct {
	OpenRegistration bool
	EmailsEnabled    bool
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	notifier    Notifier
	opts        UserOptions
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, notifier Notifier,
	opts UserOptions, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, hasher: hasher, notifier: notifier, opts: opts, log: log}
}

// List returns a page of users together with the total count; superusers only.
func (s *UserService) List(ctx context.Context, actor *models.User, page Page) (*models.UsersPage, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}
	if err := page.validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	users, err := repo.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	return &models.UsersPage{Data: users, Count: count}, nil
}

// Create adds an account on behalf of a superuser and, when mail is
// configured, notifies the new user.
func (s *UserService) Create(ctx context.Context, actor *models.User, in models.UserCreate) (*models.User, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}

	user, err := s.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.opts.EmailsEnabled {
		if err := s.notifier.SendNewAccount(ctx, user.Email, user.Email); err != nil {
			s.log.Error(ctx, "new account email failed", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// Register is open sign-up. New accounts are active and never superusers.
func (s *UserService) Register(ctx context.Context, in models.UserRegister) (*models.User, error) {
	if !s.opts.OpenRegistration {
		return nil, common.WithDetail(common.ErrRegistrationClosed, "Open user registration is forbidden on this server")
	}

	return s.CreateAccount(ctx, models.UserCreate{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		IsActive: true,
	})
}

// CreateAccount validates and stores a new account without any
// authorization check. The admin CLI and bootstrap call it directly.
func (s *UserService) CreateAccount(ctx context.Context, in models.UserCreate) (*models.User, error) {
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validateFullName(in.FullName); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if err := s.ensureEmailFree(ctx, repo.GetUserByEmail, in.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: error hashing password: %v", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:          in.Email,
		HashedPassword: hashed,
		IsActive:       in.IsActive,
		IsSuperuser:    in.IsSuperuser,
		FullName:       in.FullName,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user created", "user_id", user.ID, "superuser", user.IsSuperuser)
	return user, nil
}

// ensureEmailFree fails with a conflict when email belongs to a user other
// than self.
func (s *UserService) ensureEmailFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error),
	email string, self uuid.UUID) error {
	existing, err := lookup(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error looking up email: %w", err)
	case existing.ID != self:
		return errEmailTaken
	}
	return nil
}

// Get returns a user by id. Users may read themselves; anyone else needs
// superuser rights.
func (s *UserService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if actor.ID == id {
		return actor, nil
	}
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// UpdateMe changes the actor's own email and full name.
func (s *UserService) UpdateMe(ctx context.Context, actor *models.User, in models.UserUpdateMe) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if in.Email.Set {
		if err := validateEmail(in.Email.Value); err != nil {
			return nil, err
		}
		if err := s.ensureEmailFree(ctx, repo.GetUserByEmail, in.Email.Value, actor.ID); err != nil {
			return nil, err
		}
	}
	if err := validateFullName(in.FullName.Value); err != nil {
		return nil, err
	}

	updated := *actor
	in.Email.Apply(&updated.Email)
	in.FullName.Apply(&updated.FullName)

	user, err := repo.Update(ctx, &updated)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return user, nil
}

// Update lets a superuser change any field of another account. A new
// password is stored in the same transaction as the profile change.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in models.UserUpdate) (*models.User, error) {
	if err := auth.RequireSuperuser(actor); err != nil {
		return nil, err
	}

	if in.Email.Set {
		if err := validateEmail(in.Email.Value); err != nil {
			return nil, err
		}
	}
	if in.Password.Set {
		if err := validatePassword(in.Password.Value); err != nil {
			return nil, err
		}
	}
	if err := validateFullName(in.FullName.Value); err != nil {
		return nil, err
	}

	var result *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errNoUserWithID
			}
			return fmt.Errorf("error getting user: %w", err)
		}

		if in.Email.Set {
			if err := s.ensureEmailFree(ctx, repo.GetUserByEmail, in.Email.Value, user.ID); err != nil {
				return err
			}
		}

		in.Email.Apply(&user.Email)
		in.FullName.Apply(&user.FullName)
		in.IsActive.Apply(&user.IsActive)
		in.IsSuperuser.Apply(&user.IsSuperuser)

		if in.Password.Set {
			hashed, err := s.hasher.Hash(in.Password.Value)
			if err != nil {
				return fmt.Errorf("%w: error hashing password: %v", common.ErrorInternal, err)
			}
			if err := repo.UpdatePassword(ctx, user.ID, hashed); err != nil {
				return fmt.Errorf("error updating password: %w", err)
			}
			user.HashedPassword = hashed
		}

		result, err = repo.Update(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrConflict) {
				return errEmailTaken
			}
			return fmt.Errorf("error updating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user updated", "user_id", result.ID, "by", actor.ID)
	return result, nil
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, actor *models.User, in models.UpdatePassword) error {
	if !s.hasher.Verify(in.CurrentPassword, actor.HashedPassword) {
		return errIncorrectPass
	}
	if in.CurrentPassword == in.NewPassword {
		return errSamePassword
	}
	if err := validatePassword(in.NewPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("%w: error hashing password: %v", common.ErrorInternal, err)
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, actor.ID, hashed); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "password changed", "user_id", actor.ID)
	return nil
}

// SetPassword overwrites the password of the account with email. It skips
// every check but length and is meant for operators.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errNoUserWithEmail
		}
		return fmt.Errorf("error getting user: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: error hashing password: %v", common.ErrorInternal, err)
	}
	return repo.UpdatePassword(ctx, user.ID, hashed)
}

// DeleteMe removes the actor's own account and items. Superusers cannot.
func (s *UserService) DeleteMe(ctx context.Context, actor *models.User) error {
	if err := auth.RequireSelfDeleteAllowed(actor); err != nil {
		return errSelfDeleteDenied
	}
	return s.deleteWithItems(ctx, actor.ID)
}

// Delete removes another account and its items; superusers only.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := auth.RequireSuperuser(actor); err != nil {
		return err
	}

	if _, err := s.repomanager.Users(s.db).GetUserByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errUserNotFound
		}
		return fmt.Errorf("error getting user: %w", err)
	}

	if err := auth.RequireAdminDeleteAllowed(actor, id); err != nil {
		return errSelfDeleteDenied
	}
	return s.deleteWithItems(ctx, id)
}

func (s *UserService) deleteWithItems(ctx context.Context, id uuid.UUID) error {
	var removed int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = s.repomanager.Items(tx).DeleteByOwner(ctx, id)
		if err != nil {
			return fmt.Errorf("error deleting items: %w", err)
		}
		if err := s.repomanager.Users(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return errUserNotFound
			}
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "user deleted", "user_id", id, "items", removed)
	return nil
}

// EnsureFirstSuperuser creates the bootstrap superuser unless an account
// with that email already exists. It reports whether a user was created.
func (s *UserService) EnsureFirstSuperuser(ctx context.Context, email, password string) (bool, error) {
	_, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err == nil {
		s.log.Debug(ctx, "first superuser already exists", "email", email)
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("error looking up first superuser: %w", err)
	}

	_, err = s.CreateAccount(ctx, models.UserCreate{
		Email:       email,
		Password:    password,
		IsActive:    true,
		IsSuperuser: true,
	})
	if err != nil {
		return false, fmt.Errorf("error creating first superuser: %w", err)
	}
	return true, nil
}

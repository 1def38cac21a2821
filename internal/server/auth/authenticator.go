// Package auth holds the identity core: password hashing, token issuing and
// decoding, credential checks, bearer token resolution and authorization
// gates.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

// UserStore is the part of the user repository identity checks need.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator checks email/password pairs.
type Authenticator struct {
	users  UserStore
	hasher *PasswordHasher
	dummy  string
}

func NewAuthenticator(users UserStore, hasher *PasswordHasher) (*Authenticator, error) {
	dummy, err := hasher.Hash(string(common.GenerateRandByteArray(16)))
	if err != nil {
		return nil, fmt.Errorf("error preparing authenticator: %w", err)
	}
	return &Authenticator{users: users, hasher: hasher, dummy: dummy}, nil
}

// Authenticate returns the user owning email when password matches. An
// unknown email and a wrong password both yield common.ErrInvalidCredentials,
// and both pay for one hash verification.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.hasher.Verify(password, a.dummy)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if !a.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

// Resolver turns a bearer access token into the current user.
type Resolver struct {
	codec *TokenCodec
	users UserStore
}

func NewResolver(codec *TokenCodec, users UserStore) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// Resolve fails with common.ErrUnauthenticated (joined with the decode
// reason) for any unusable token and with common.ErrPrincipalNotFound when
// the token names a user that no longer exists.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.codec.Decode(token, PurposeAccess)
	if err != nil {
		return nil, errors.Join(common.ErrUnauthenticated, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(common.ErrUnauthenticated, common.ErrTokenMalformed)
	}

	user, err := r.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return user, nil
}

package auth

import (
	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

// Gates are pure checks run after the user is resolved; nil means allowed.

func RequireActive(u *models.User) error {
	if !u.IsActive {
		return common.ErrInactiveAccount
	}
	return nil
}

func RequireSuperuser(u *models.User) error {
	if !u.IsSuperuser {
		return common.ErrInsufficientPrivilege
	}
	return nil
}

// RequireOwnerOrSuperuser allows u to act on something owned by ownerID.
// Passing a user id as ownerID checks "self or superuser".
func RequireOwnerOrSuperuser(u *models.User, ownerID uuid.UUID) error {
	if u.IsSuperuser || u.ID == ownerID {
		return nil
	}
	return common.ErrInsufficientPrivilege
}

// RequireOwner allows only the owner, superusers included.
func RequireOwner(u *models.User, ownerID uuid.UUID) error {
	if u.ID != ownerID {
		return common.ErrInsufficientPrivilege
	}
	return nil
}

// RequireSelfDeleteAllowed guards DELETE /users/me.
func RequireSelfDeleteAllowed(u *models.User) error {
	if u.IsSuperuser {
		return common.ErrSuperuserSelfDelete
	}
	return nil
}

// RequireAdminDeleteAllowed guards deleting targetID through the admin path.
func RequireAdminDeleteAllowed(actor *models.User, targetID uuid.UUID) error {
	if err := RequireSuperuser(actor); err != nil {
		return err
	}
	if actor.ID == targetID {
		return common.ErrSuperuserSelfDelete
	}
	return nil
}

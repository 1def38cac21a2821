// Package items persists user-owned items.
package items

import (
	"context"

	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, offset, limit int) ([]models.Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Item, error)
	Count(ctx context.Context) (int, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

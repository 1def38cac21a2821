package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var (
	errItemNotFound  = common.WithDetail(common.ErrorNotFound, "Item not found")
	errNotEnoughPriv = common.WithDetail(common.ErrInsufficientPrivilege, "Not enough permissions")

	errNoItemWithID = common.WithDetail(common.ErrorNotFound, "The item with this id does not exist in the system")
	errNotItemOwner = common.WithDetail(common.ErrInsufficientPrivilege, "The user doesn't have enough privileges")
)

// itemAccess is the gate an item route applies and the errors it reports.
type itemAccess struct {
	gate     func(*models.User, uuid.UUID) error
	notFound error
	denied   error
}

var (
	// ownerOrSuperuser backs /items.
	ownerOrSuperuser = itemAccess{auth.RequireOwnerOrSuperuser, errItemNotFound, errNotEnoughPriv}

	// ownerOnly backs /users/me/items; superusers get no bypass there.
	ownerOnly = itemAccess{auth.RequireOwner, errNoItemWithID, errNotItemOwner}
)

type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewItemService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ItemService {
	return &ItemService{db: db, repomanager: m, log: log}
}

// List returns every item to a superuser and the actor's own items otherwise.
func (s *ItemService) List(ctx context.Context, actor *models.User, page Page) (*models.ItemsPage, error) {
	if !actor.IsSuperuser {
		return s.ListOwn(ctx, actor, page)
	}
	if err := page.validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Items(s.db)

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting items: %w", err)
	}
	items, err := repo.List(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	return &models.ItemsPage{Data: items, Count: count}, nil
}

// ListOwn returns the actor's items regardless of privileges.
func (s *ItemService) ListOwn(ctx context.Context, actor *models.User, page Page) (*models.ItemsPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Items(s.db)

	count, err := repo.CountByOwner(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting items: %w", err)
	}
	items, err := repo.ListByOwner(ctx, actor.ID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	return &models.ItemsPage{Data: items, Count: count}, nil
}

// load fetches an item and checks the actor may touch it.
func (s *ItemService) load(ctx context.Context, actor *models.User, id uuid.UUID, access itemAccess) (*models.Item, error) {
	item, err := s.repomanager.Items(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, access.notFound
		}
		return nil, fmt.Errorf("error getting item: %w", err)
	}
	if err := access.gate(actor, item.OwnerID); err != nil {
		return nil, access.denied
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error) {
	return s.load(ctx, actor, id, ownerOrSuperuser)
}

// GetOwned is Get restricted to the actor's own items.
func (s *ItemService) GetOwned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error) {
	return s.load(ctx, actor, id, ownerOnly)
}

// Create stores a new item owned by the actor.
func (s *ItemService) Create(ctx context.Context, actor *models.User, in models.ItemCreate) (*models.Item, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	item, err := s.repomanager.Items(s.db).Create(ctx, &models.Item{
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating item: %w", err)
	}

	s.log.Debug(ctx, "item created", "item_id", item.ID, "owner_id", item.OwnerID)
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error) {
	return s.update(ctx, actor, id, in, ownerOrSuperuser)
}

// UpdateOwned is Update restricted to the actor's own items.
func (s *ItemService) UpdateOwned(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error) {
	return s.update(ctx, actor, id, in, ownerOnly)
}

func (s *ItemService) update(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate, access itemAccess) (*models.Item, error) {
	if in.Title.Set {
		if err := validateTitle(in.Title.Value); err != nil {
			return nil, err
		}
	}
	if err := validateDescription(in.Description.Value); err != nil {
		return nil, err
	}

	item, err := s.load(ctx, actor, id, access)
	if err != nil {
		return nil, err
	}

	in.Title.Apply(&item.Title)
	in.Description.Apply(&item.Description)

	updated, err := s.repomanager.Items(s.db).Update(ctx, item)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, access.notFound
		}
		return nil, fmt.Errorf("error updating item: %w", err)
	}
	return updated, nil
}

func (s *ItemService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return s.delete(ctx, actor, id, ownerOrSuperuser)
}

// DeleteOwned is Delete restricted to the actor's own items.
func (s *ItemService) DeleteOwned(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return s.delete(ctx, actor, id, ownerOnly)
}

func (s *ItemService) delete(ctx context.Context, actor *models.User, id uuid.UUID, access itemAccess) error {
	if _, err := s.load(ctx, actor, id, access); err != nil {
		return err
	}

	if err := s.repomanager.Items(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return access.notFound
		}
		return fmt.Errorf("error deleting item: %w", err)
	}

	s.log.Debug(ctx, "item deleted", "item_id", id, "by", actor.ID)
	return nil
}

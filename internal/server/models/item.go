package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a resource owned by exactly one user.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

type ItemsPage struct {
	Data  []Item `json:"data"`
	Count int    `json:"count"`
}

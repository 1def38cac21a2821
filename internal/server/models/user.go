package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a stored account. HashedPassword never leaves the server.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsSuperuser    bool      `json:"is_superuser"`
	FullName       *string   `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

// UsersPage is one page of users plus the total count.
type UsersPage struct {
	Data  []User `json:"data"`
	Count int    `json:"count"`
}

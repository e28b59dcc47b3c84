package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the denormalized running reputation total of a user.
type UserProfile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"password_hash"`
	Reputation     int       `json:"reputation" db:"reputation"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

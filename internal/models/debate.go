package models

import (
	"time"

	"github.com/google/uuid"
)

type Debate struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description,omitempty" db:"description"`
	CreatorID     uuid.UUID `json:"creatorId" db:"creator_id"`
	ArgumentCount int       `json:"argumentCount" db:"argument_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

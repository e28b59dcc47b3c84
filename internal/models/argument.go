package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArgumentType is the stance of an argument within its debate.
type ArgumentType string

const (
	ArgumentThesis ArgumentType = "Thesis"
	ArgumentPro    ArgumentType = "Pro"
	ArgumentContra ArgumentType = "Contra"
)

// ParseArgumentType accepts the canonical names case-insensitively.
func ParseArgumentType(s string) (ArgumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thesis":
		return ArgumentThesis, true
	case "pro":
		return ArgumentPro, true
	case "contra":
		return ArgumentContra, true
	}
	return "", false
}

// Argument is a post in a debate thread. ParentID, when set, references an
// argument of the same debate.
type Argument struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	DebateID          uuid.UUID    `json:"debateId" db:"debate_id"`
	ParentID          *uuid.UUID   `json:"parentId,omitempty" db:"parent_id"`
	Text              string       `json:"text" db:"text"`
	Type              ArgumentType `json:"type" db:"type"`
	AuthorID          uuid.UUID    `json:"authorId" db:"author_id"`
	AuthorDisplayName *string      `json:"authorDisplayName,omitempty" db:"author_display_name"`
	SourceURL         *string      `json:"sourceUrl,omitempty" db:"source_url"`
	SourceDescription *string      `json:"sourceDescription,omitempty" db:"source_description"`
	QualityScore      *int         `json:"qualityScore,omitempty" db:"quality_score"`
	InsightfulCount   int          `json:"insightfulCount" db:"insightful_count"`
	ConcedeCount      int          `json:"concedeCount" db:"concede_count"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time    `json:"updatedAt" db:"updated_at"`
}

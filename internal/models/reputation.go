package models

import (
	"time"

	"github.com/google/uuid"
)

// ReputationTransaction is one row of the append-only reputation ledger.
type ReputationTransaction struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            uuid.UUID  `json:"userId" db:"user_id"`
	Points            int        `json:"points" db:"points"`
	Reason            string     `json:"reason" db:"reason"`
	ActionType        string     `json:"actionType" db:"action_type"`
	RelatedArgumentID *uuid.UUID `json:"relatedArgumentId,omitempty" db:"related_argument_id"`
	GrantedByUserID   *uuid.UUID `json:"grantedByUserId,omitempty" db:"granted_by_user_id"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
}

// LeaderboardEntry is a projection of user_profiles ordered by reputation.
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"userId" db:"id"`
	Username   string    `json:"username" db:"username"`
	Reputation int       `json:"reputation" db:"reputation"`
}

// IsOneShotAction reports ledger actions that may be recorded at most once per
// (user, related argument).
func IsOneShotAction(actionType string) bool {
	return actionType == "steel_manning" || actionType == "argument_conceded"
}

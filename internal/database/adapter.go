package database

import (
	"context"

	"github.com/google/uuid"

	"debate-forum/internal/models"
	"debate-forum/internal/reputation"
)

// DBAdapter defines the storage operations the engine relies on.
// PostgresDB is the production implementation, MemoryStore backs DB_TYPE=memory and tests.
//
// ApplyReputation and RecordRating are atomic: the ledger row and the running
// total on user_profiles are written together or not at all.
type DBAdapter interface {
	Close(ctx context.Context) error

	// Users
	SaveUser(ctx context.Context, user *models.UserProfile) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// Debates
	SaveDebate(ctx context.Context, debate *models.Debate) error
	GetDebate(ctx context.Context, id uuid.UUID) (*models.Debate, error)
	ListDebates(ctx context.Context, limit, offset int) ([]*models.Debate, error)
	CountDebates(ctx context.Context) (int, error)

	// Arguments
	SaveArgument(ctx context.Context, arg *models.Argument) error
	GetArgument(ctx context.Context, id uuid.UUID) (*models.Argument, error)
	GetDebateArguments(ctx context.Context, debateID uuid.UUID) ([]*models.Argument, error)

	// Ratings. The rule is granted to the argument's author in the same transaction.
	RecordRating(ctx context.Context, rating *models.Rating, rule reputation.Rule) (*models.ReputationTransaction, error)

	// Reputation ledger
	ApplyReputation(ctx context.Context, tx *models.ReputationTransaction) error
	HasReputationTransaction(ctx context.Context, userID uuid.UUID, action string, relatedArgumentID uuid.UUID) (bool, error)
	GetReputationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ReputationTransaction, error)
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

var (
	_ DBAdapter = (*PostgresDB)(nil)
	_ DBAdapter = (*MemoryStore)(nil)
)

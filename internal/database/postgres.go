// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"debate-forum/internal/models"
	"debate-forum/internal/reputation"
	"debate-forum/internal/utils"
)

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(ctx context.Context, connectionString string, logger *zap.Logger) (*PostgresDB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return &PostgresDB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	p.logger.Info("closing PostgreSQL connection")
	return p.DB.Close()
}

var schema = []struct {
	name string
	ddl  string
}{
	{"user_profiles", `
		CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			reputation INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"debates", `
		CREATE TABLE IF NOT EXISTS debates (
			id UUID PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			description TEXT,
			creator_id UUID NOT NULL REFERENCES user_profiles(id),
			argument_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"arguments", `
		CREATE TABLE IF NOT EXISTS arguments (
			id UUID PRIMARY KEY,
			debate_id UUID NOT NULL REFERENCES debates(id),
			parent_id UUID REFERENCES arguments(id),
			text TEXT NOT NULL,
			type VARCHAR(10) NOT NULL CHECK (type IN ('Thesis', 'Pro', 'Contra')),
			author_id UUID NOT NULL REFERENCES user_profiles(id),
			author_display_name VARCHAR(50),
			source_url TEXT,
			source_description TEXT,
			quality_score INTEGER CHECK (quality_score BETWEEN 0 AND 100),
			insightful_count INTEGER NOT NULL DEFAULT 0,
			concede_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"arguments_debate_idx", `CREATE INDEX IF NOT EXISTS arguments_debate_idx ON arguments (debate_id, created_at)`},
	{"ratings", `
		CREATE TABLE IF NOT EXISTS ratings (
			id UUID PRIMARY KEY,
			argument_id UUID NOT NULL REFERENCES arguments(id),
			rater_user_id UUID NOT NULL REFERENCES user_profiles(id),
			rating_type VARCHAR(20) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (argument_id, rater_user_id, rating_type)
		)`},
	{"reputation_transactions", `
		CREATE TABLE IF NOT EXISTS reputation_transactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES user_profiles(id),
			points INTEGER NOT NULL,
			reason TEXT NOT NULL,
			action_type VARCHAR(40) NOT NULL,
			related_argument_id UUID REFERENCES arguments(id),
			granted_by_user_id UUID REFERENCES user_profiles(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
	{"reputation_transactions_user_idx", `CREATE INDEX IF NOT EXISTS reputation_transactions_user_idx ON reputation_transactions (user_id, created_at DESC)`},
	{"reputation_transactions_one_shot_idx", `
		CREATE UNIQUE INDEX IF NOT EXISTS reputation_transactions_one_shot_idx
		ON reputation_transactions (user_id, action_type, related_argument_id)
		WHERE action_type IN ('steel_manning', 'argument_conceded')`},
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	for _, s := range schema {
		if _, err := p.DB.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return pqErr, true
	}
	return nil, false
}

// --- Users ---

func (p *PostgresDB) SaveUser(ctx context.Context, user *models.UserProfile) error {
	now := time.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}

	query := `
		INSERT INTO user_profiles (id, username, email, password_hash, reputation, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :reputation, :created_at, :updated_at)
	`
	if _, err := p.DB.NamedExecContext(ctx, query, user); err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("user already exists: %v", pqErr.Constraint), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, reputation, created_at, updated_at`

func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var user models.UserProfile
	err := p.DB.GetContext(ctx, &user, `SELECT `+userColumns+` FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewUserNotFoundError(id.String())
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}
	return &user, nil
}

func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := p.DB.GetContext(ctx, &user, `SELECT `+userColumns+` FROM user_profiles WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by email", err)
	}
	return &user, nil
}

// --- Debates ---

func (p *PostgresDB) SaveDebate(ctx context.Context, debate *models.Debate) error {
	now := time.Now()
	debate.UpdatedAt = now
	if debate.CreatedAt.IsZero() {
		debate.CreatedAt = now
	}

	query := `
		INSERT INTO debates (id, title, description, creator_id, argument_count, created_at, updated_at)
		VALUES (:id, :title, :description, :creator_id, :argument_count, :created_at, :updated_at)
	`
	if _, err := p.DB.NamedExecContext(ctx, query, debate); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save debate", err)
	}
	return nil
}

const debateColumns = `id, title, description, creator_id, argument_count, created_at, updated_at`

func (p *PostgresDB) GetDebate(ctx context.Context, id uuid.UUID) (*models.Debate, error) {
	var debate models.Debate
	err := p.DB.GetContext(ctx, &debate, `SELECT `+debateColumns+` FROM debates WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewDebateNotFoundError(id.String())
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query debate", err)
	}
	return &debate, nil
}

func (p *PostgresDB) ListDebates(ctx context.Context, limit, offset int) ([]*models.Debate, error) {
	if offset < 0 {
		offset = 0
	}
	debates := []*models.Debate{}
	err := p.DB.SelectContext(ctx, &debates,
		`SELECT `+debateColumns+` FROM debates ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		clampLimit(limit), offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list debates", err)
	}
	return debates, nil
}

func (p *PostgresDB) CountDebates(ctx context.Context) (int, error) {
	var n int
	if err := p.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM debates`); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to count debates", err)
	}
	return n, nil
}

// --- Arguments ---

// SaveArgument inserts the argument and bumps the debate's argument count.
// A parent from another debate is rejected inside the transaction.
func (p *PostgresDB) SaveArgument(ctx context.Context, arg *models.Argument) error {
	now := time.Now()
	arg.UpdatedAt = now
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = now
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	if arg.ParentID != nil {
		var parentDebate uuid.UUID
		err = tx.GetContext(ctx, &parentDebate, `SELECT debate_id FROM arguments WHERE id = $1`, *arg.ParentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && parentDebate != arg.DebateID) {
			return utils.NewAppError(utils.ErrInvalidParent, "parent argument must belong to the same debate", nil)
		}
		if err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to check parent argument", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE debates SET argument_count = argument_count + 1, updated_at = NOW() WHERE id = $1`, arg.DebateID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update debate", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.NewDebateNotFoundError(arg.DebateID.String())
	}

	query := `
		INSERT INTO arguments (id, debate_id, parent_id, text, type, author_id, author_display_name,
			source_url, source_description, quality_score, insightful_count, concede_count, created_at, updated_at)
		VALUES (:id, :debate_id, :parent_id, :text, :type, :author_id, :author_display_name,
			:source_url, :source_description, :quality_score, :insightful_count, :concede_count, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, arg); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save argument", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit argument", err)
	}
	return nil
}

const argumentColumns = `id, debate_id, parent_id, text, type, author_id, author_display_name, source_url,
	source_description, quality_score, insightful_count, concede_count, created_at, updated_at`

func (p *PostgresDB) GetArgument(ctx context.Context, id uuid.UUID) (*models.Argument, error) {
	var arg models.Argument
	err := p.DB.GetContext(ctx, &arg, `SELECT `+argumentColumns+` FROM arguments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewArgumentNotFoundError(id.String())
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query argument", err)
	}
	return &arg, nil
}

// GetDebateArguments returns the flat thread in creation order.
func (p *PostgresDB) GetDebateArguments(ctx context.Context, debateID uuid.UUID) ([]*models.Argument, error) {
	args := []*models.Argument{}
	err := p.DB.SelectContext(ctx, &args,
		`SELECT `+argumentColumns+` FROM arguments WHERE debate_id = $1 ORDER BY created_at ASC, id ASC`, debateID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query debate arguments", err)
	}
	return args, nil
}

// --- Ratings and reputation ---

// RecordRating stores the rating and grants rule to the argument's author.
// Self-ratings and repeated (argument, rater, type) triples are rejected.
func (p *PostgresDB) RecordRating(ctx context.Context, rating *models.Rating, rule reputation.Rule) (*models.ReputationTransaction, error) {
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var authorID uuid.UUID
	err = tx.GetContext(ctx, &authorID, `SELECT author_id FROM arguments WHERE id = $1 FOR UPDATE`, rating.ArgumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewArgumentNotFoundError(rating.ArgumentID.String())
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to load argument author", err)
	}
	if authorID == rating.RaterUserID {
		return nil, utils.NewSelfRatingError()
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO ratings (id, argument_id, rater_user_id, rating_type, created_at)
		VALUES (:id, :argument_id, :rater_user_id, :rating_type, :created_at)
	`, rating)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return nil, utils.NewAlreadyRatedError(string(rating.RatingType))
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to save rating", err)
	}

	counter := "insightful_count"
	if rating.RatingType == models.RatingConcedePoint {
		counter = "concede_count"
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE arguments SET `+counter+` = `+counter+` + 1, updated_at = NOW() WHERE id = $1`, rating.ArgumentID); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to update rating count", err)
	}

	grant := rule.Transaction(authorID, &rating.ArgumentID, &rating.RaterUserID)
	if err := applyReputationTx(ctx, tx, &grant); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to commit rating", err)
	}
	return &grant, nil
}

// ApplyReputation appends a ledger row and updates the running total atomically.
func (p *PostgresDB) ApplyReputation(ctx context.Context, rt *models.ReputationTransaction) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := applyReputationTx(ctx, tx, rt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit reputation", err)
	}
	return nil
}

func applyReputationTx(ctx context.Context, tx *sqlx.Tx, rt *models.ReputationTransaction) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE user_profiles SET reputation = reputation + $1, updated_at = NOW() WHERE id = $2`, rt.Points, rt.UserID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update reputation total", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.NewUserNotFoundError(rt.UserID.String())
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO reputation_transactions (id, user_id, points, reason, action_type, related_argument_id, granted_by_user_id, created_at)
		VALUES (:id, :user_id, :points, :reason, :action_type, :related_argument_id, :granted_by_user_id, :created_at)
	`, rt)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return utils.NewAppError(utils.ErrDuplicate, "reputation already granted for "+rt.ActionType, err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to append reputation transaction", err)
	}
	return nil
}

func (p *PostgresDB) HasReputationTransaction(ctx context.Context, userID uuid.UUID, action string, relatedArgumentID uuid.UUID) (bool, error) {
	var exists bool
	err := p.DB.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM reputation_transactions
			WHERE user_id = $1 AND action_type = $2 AND related_argument_id = $3
		)`, userID, action, relatedArgumentID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to query reputation transactions", err)
	}
	return exists, nil
}

func (p *PostgresDB) GetReputationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ReputationTransaction, error) {
	history := []*models.ReputationTransaction{}
	err := p.DB.SelectContext(ctx, &history, `
		SELECT id, user_id, points, reason, action_type, related_argument_id, granted_by_user_id, created_at
		FROM reputation_transactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, clampLimit(limit))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query reputation history", err)
	}
	return history, nil
}

func (p *PostgresDB) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	entries := []*models.LeaderboardEntry{}
	err := p.DB.SelectContext(ctx, &entries,
		`SELECT id, username, reputation FROM user_profiles ORDER BY reputation DESC, username ASC LIMIT $1`,
		clampLimit(limit))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query leaderboard", err)
	}
	return entries, nil
}

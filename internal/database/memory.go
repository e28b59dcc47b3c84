package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"debate-forum/internal/models"
	"debate-forum/internal/reputation"
	"debate-forum/internal/utils"
)

type ratingKey struct {
	argumentID uuid.UUID
	raterID    uuid.UUID
	ratingType models.RatingType
}

// MemoryStore is a process-local DBAdapter with the same guards as PostgresDB.
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*models.UserProfile
	debates   map[uuid.UUID]*models.Debate
	arguments map[uuid.UUID]*models.Argument
	ratings   map[ratingKey]*models.Rating
	ledger    []*models.ReputationTransaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[uuid.UUID]*models.UserProfile),
		debates:   make(map[uuid.UUID]*models.Debate),
		arguments: make(map[uuid.UUID]*models.Argument),
		ratings:   make(map[ratingKey]*models.Rating),
	}
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func (m *MemoryStore) SaveUser(ctx context.Context, user *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return utils.NewAppError(utils.ErrDuplicate, "user already exists: email", nil)
		}
		if u.Username == user.Username {
			return utils.NewAppError(utils.ErrDuplicate, "user already exists: username", nil)
		}
	}
	now := time.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
}

func (m *MemoryStore) SaveDebate(ctx context.Context, debate *models.Debate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	debate.UpdatedAt = now
	if debate.CreatedAt.IsZero() {
		debate.CreatedAt = now
	}
	cp := *debate
	m.debates[debate.ID] = &cp
	return nil
}

func (m *MemoryStore) GetDebate(ctx context.Context, id uuid.UUID) (*models.Debate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.debates[id]
	if !ok {
		return nil, utils.NewDebateNotFoundError(id.String())
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) ListDebates(ctx context.Context, limit, offset int) ([]*models.Debate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*models.Debate, 0, len(m.debates))
	for _, d := range m.debates {
		cp := *d
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*models.Debate{}, nil
	}
	end := offset + clampLimit(limit)
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MemoryStore) CountDebates(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.debates), nil
}

func (m *MemoryStore) SaveArgument(ctx context.Context, arg *models.Argument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.debates[arg.DebateID]
	if !ok {
		return utils.NewDebateNotFoundError(arg.DebateID.String())
	}
	if arg.ParentID != nil {
		parent, ok := m.arguments[*arg.ParentID]
		if !ok || parent.DebateID != arg.DebateID {
			return utils.NewAppError(utils.ErrInvalidParent, "parent argument must belong to the same debate", nil)
		}
	}

	now := time.Now()
	arg.UpdatedAt = now
	if arg.CreatedAt.IsZero() {
		arg.CreatedAt = now
	}
	cp := *arg
	m.arguments[arg.ID] = &cp
	d.ArgumentCount++
	d.UpdatedAt = now
	return nil
}

func (m *MemoryStore) GetArgument(ctx context.Context, id uuid.UUID) (*models.Argument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.arguments[id]
	if !ok {
		return nil, utils.NewArgumentNotFoundError(id.String())
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetDebateArguments(ctx context.Context, debateID uuid.UUID) ([]*models.Argument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Argument{}
	for _, a := range m.arguments {
		if a.DebateID == debateID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) RecordRating(ctx context.Context, rating *models.Rating, rule reputation.Rule) (*models.ReputationTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	arg, ok := m.arguments[rating.ArgumentID]
	if !ok {
		return nil, utils.NewArgumentNotFoundError(rating.ArgumentID.String())
	}
	if arg.AuthorID == rating.RaterUserID {
		return nil, utils.NewSelfRatingError()
	}
	k := ratingKey{argumentID: rating.ArgumentID, raterID: rating.RaterUserID, ratingType: rating.RatingType}
	if _, dup := m.ratings[k]; dup {
		return nil, utils.NewAlreadyRatedError(string(rating.RatingType))
	}

	grant := rule.Transaction(arg.AuthorID, &rating.ArgumentID, &rating.RaterUserID)
	if err := m.applyLocked(&grant); err != nil {
		return nil, err
	}

	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now()
	}
	cp := *rating
	m.ratings[k] = &cp
	if rating.RatingType == models.RatingConcedePoint {
		arg.ConcedeCount++
	} else {
		arg.InsightfulCount++
	}
	return &grant, nil
}

func (m *MemoryStore) ApplyReputation(ctx context.Context, rt *models.ReputationTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(rt)
}

// applyLocked must be the last fallible step of a mutation so a failure leaves no partial state.
func (m *MemoryStore) applyLocked(rt *models.ReputationTransaction) error {
	u, ok := m.users[rt.UserID]
	if !ok {
		return utils.NewUserNotFoundError(rt.UserID.String())
	}
	if models.IsOneShotAction(rt.ActionType) && rt.RelatedArgumentID != nil &&
		m.hasTransactionLocked(rt.UserID, rt.ActionType, *rt.RelatedArgumentID) {
		return utils.NewAppError(utils.ErrDuplicate, "reputation already granted for "+rt.ActionType, nil)
	}
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now()
	}
	u.Reputation += rt.Points
	u.UpdatedAt = time.Now()
	cp := *rt
	m.ledger = append(m.ledger, &cp)
	return nil
}

func (m *MemoryStore) HasReputationTransaction(ctx context.Context, userID uuid.UUID, action string, relatedArgumentID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasTransactionLocked(userID, action, relatedArgumentID), nil
}

func (m *MemoryStore) hasTransactionLocked(userID uuid.UUID, action string, relatedArgumentID uuid.UUID) bool {
	for _, rt := range m.ledger {
		if rt.UserID == userID && rt.ActionType == action &&
			rt.RelatedArgumentID != nil && *rt.RelatedArgumentID == relatedArgumentID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) GetReputationHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ReputationTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = clampLimit(limit)
	out := []*models.ReputationTransaction{}
	for i := len(m.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if m.ledger[i].UserID == userID {
			cp := *m.ledger[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.LeaderboardEntry, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, &models.LeaderboardEntry{UserID: u.ID, Username: u.Username, Reputation: u.Reputation})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reputation == out[j].Reputation {
			return out[i].Username < out[j].Username
		}
		return out[i].Reputation > out[j].Reputation
	})
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

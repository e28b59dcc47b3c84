package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var claims = []string{
	"Evidence from %s suggests the policy lowered costs by a measurable margin within two years.",
	"The strongest counterexample is %s, where the same measure produced the opposite outcome.",
	"If we look at %s, implementation details mattered more than the principle itself.",
	"Critics overlook that %s already tried this and reversed course after public consultation.",
}

var places = []string{"Oslo", "Ghent", "Pontevedra", "Utrecht", "Seoul", "Vienna", "Bogotá", "Helsinki"}

func asStatus(err error, target **statusError) bool {
	return errors.As(err, target)
}

// SimulateActivities runs the argument and rating loops until ctx ends.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	jobs := make(chan *SimulatedUser, s.config.Workers)
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				s.act(ctx, user)
			}
		}()
	}

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			s.mu.RLock()
			users := append([]*SimulatedUser(nil), s.users...)
			s.mu.RUnlock()
			for _, u := range users {
				select {
				case jobs <- u:
				case <-ctx.Done():
					break loop
				}
			}
		}
	}
	close(jobs)
	wg.Wait()
}

// act decides per tick whether user posts an argument and whether it rates one.
// Frequencies are per hour, so the chance per tick scales with the interval.
func (s *Simulator) act(ctx context.Context, user *SimulatedUser) {
	perTick := s.config.TickInterval.Hours()
	if s.chance(s.config.ArgumentFrequency * perTick) {
		s.postArgument(ctx, user)
	}
	if s.chance(s.config.RatingFrequency * perTick) {
		s.rateArgument(ctx, user)
	}
}

func (s *Simulator) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

func (s *Simulator) postArgument(ctx context.Context, user *SimulatedUser) {
	debateID, ok := s.pickDebate()
	if !ok {
		return
	}
	parent := s.pickParent(debateID)

	s.mu.Lock()
	body := map[string]interface{}{
		"debateId": debateID.String(),
		"text":     fmt.Sprintf(claims[s.rng.Intn(len(claims))], places[s.rng.Intn(len(places))]),
		"type":     "Thesis",
	}
	if parent != nil {
		body["parentId"] = parent.String()
		body["type"] = []string{"Pro", "Contra"}[s.rng.Intn(2)]
	}
	if s.rng.Float64() < 0.3 {
		body["sourceUrl"] = "https://example.org/reports/" + uuid.NewString()[:8]
		body["sourceDescription"] = "Municipal report"
	}
	s.mu.Unlock()

	var created struct {
		Argument struct {
			ID uuid.UUID `json:"id"`
		} `json:"argument"`
	}
	if err := s.makeRequest(ctx, http.MethodPost, "/argument", user.Token, body, &created); err != nil {
		s.countRejection(err)
		s.logger.Debug("argument rejected", zap.String("user", user.Username), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.arguments = append(s.arguments, simArgument{ID: created.Argument.ID, DebateID: debateID, AuthorID: user.ID})
	user.Arguments = append(user.Arguments, created.Argument.ID)
	s.mu.Unlock()
	s.stats.mu.Lock()
	s.stats.TotalArguments++
	s.stats.mu.Unlock()
}

// pickDebate favours the oldest debates, following a Zipf distribution.
func (s *Simulator) pickDebate() (uuid.UUID, bool) {
	s.mu.RLock()
	n := len(s.debates)
	s.mu.RUnlock()
	if n == 0 {
		return uuid.Nil, false
	}
	idx := s.getZipfIndex(n)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debates[idx], true
}

// pickParent returns a random existing argument of the debate, or nil for a new thesis.
func (s *Simulator) pickParent(debateID uuid.UUID) *uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var candidates []uuid.UUID
	for _, a := range s.arguments {
		if a.DebateID == debateID {
			candidates = append(candidates, a.ID)
		}
	}
	if len(candidates) == 0 || s.rng.Float64() < 0.2 {
		return nil
	}
	id := candidates[s.rng.Intn(len(candidates))]
	return &id
}

func (s *Simulator) rateArgument(ctx context.Context, user *SimulatedUser) {
	s.mu.Lock()
	var target *simArgument
	for attempts := 0; attempts < 5 && len(s.arguments) > 0; attempts++ {
		a := s.arguments[s.rng.Intn(len(s.arguments))]
		// Ratings of one's own argument are rejected by the engine.
		if a.AuthorID != user.ID && !user.Rated[a.ID] {
			target = &a
			break
		}
	}
	ratingType := "insightful"
	if s.rng.Float64() < 0.25 {
		ratingType = "concede_point"
	}
	s.mu.Unlock()
	if target == nil {
		return
	}

	err := s.makeRequest(ctx, http.MethodPost, "/rating", user.Token, map[string]string{
		"argumentId": target.ID.String(),
		"ratingType": ratingType,
	}, nil)
	s.mu.Lock()
	user.Rated[target.ID] = true
	s.mu.Unlock()
	if err != nil {
		s.countRejection(err)
		return
	}
	s.stats.mu.Lock()
	s.stats.TotalRatings++
	s.stats.mu.Unlock()
}

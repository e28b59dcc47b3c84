// Package reputation holds the rule table that maps user actions to point deltas.
//
// Rules only select what to grant; the ledger write itself is an atomic store
// primitive (see database.DBAdapter.ApplyReputation).
package reputation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"debate-forum/internal/config"
	"debate-forum/internal/models"
	"debate-forum/internal/scoring"
)

type Action string

const (
	ActionHighQualityArgument Action = "high_quality_argument"
	ActionSteelManning        Action = "steel_manning"
	ActionSourceProvided      Action = "source_provided"
	ActionArgumentConceded    Action = "argument_conceded"
	ActionConcedePointRating  Action = "concede_point_rating"
	ActionInsightfulRating    Action = "insightful_rating"
	ActionFallacyPenalty      Action = "fallacy_penalty"
)

type Rule struct {
	Action Action `json:"action"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Transaction builds the ledger row for granting r to userID.
func (r Rule) Transaction(userID uuid.UUID, relatedArgumentID, grantedBy *uuid.UUID) models.ReputationTransaction {
	return models.ReputationTransaction{
		ID:                uuid.New(),
		UserID:            userID,
		Points:            r.Points,
		Reason:            r.Reason,
		ActionType:        string(r.Action),
		RelatedArgumentID: relatedArgumentID,
		GrantedByUserID:   grantedBy,
		CreatedAt:         time.Now(),
	}
}

type RuleBook struct {
	rules map[Action]Rule
}

// NewRuleBook builds the rule table. The two disputed values, the fallacy
// penalty and the direct concede grant, come from cfg.
func NewRuleBook(cfg *config.ScoringConfig) *RuleBook {
	if cfg == nil {
		cfg = config.DefaultScoringConfig()
	}
	rb := &RuleBook{rules: make(map[Action]Rule)}
	for _, r := range []Rule{
		{ActionHighQualityArgument, 20, "High-quality argument"},
		{ActionSteelManning, 30, "Fair reformulation of an opposing argument"},
		{ActionSourceProvided, 10, "Source provided"},
		{ActionArgumentConceded, cfg.ConcedeDirect, "Opponent conceded a point"},
		{ActionConcedePointRating, cfg.ConcedeRating, "Argument rated as a conceded point"},
		{ActionInsightfulRating, 5, "Argument rated as insightful"},
		{ActionFallacyPenalty, cfg.FallacyPenalty, "Logical fallacy detected"},
	} {
		rb.rules[r.Action] = r
	}
	return rb
}

func (rb *RuleBook) Lookup(action Action) (Rule, bool) {
	r, ok := rb.rules[action]
	return r, ok
}

// MustLookup panics on unknown actions. Only for the constants above.
func (rb *RuleBook) MustLookup(action Action) Rule {
	r, ok := rb.rules[action]
	if !ok {
		panic(fmt.Sprintf("reputation: unknown action %q", action))
	}
	return r
}

// ForNewArgument selects the rules that fire for the author of a freshly
// created argument. analysis is nil when no analysis was available.
func (rb *RuleBook) ForNewArgument(sourceProvided bool, analysis *models.QualityAnalysis) []Rule {
	var out []Rule
	if sourceProvided {
		out = append(out, rb.MustLookup(ActionSourceProvided))
	}
	if analysis == nil {
		return out
	}
	if scoring.CalculateQualityScore(*analysis) >= scoring.HighQualityThreshold {
		out = append(out, rb.MustLookup(ActionHighQualityArgument))
	}
	if analysis.Fallacy.Present() {
		out = append(out, rb.MustLookup(ActionFallacyPenalty))
	}
	return out
}

// ForRating returns the rule granted to an argument's author when it is rated.
func (rb *RuleBook) ForRating(t models.RatingType) (Rule, bool) {
	switch t {
	case models.RatingInsightful:
		return rb.Lookup(ActionInsightfulRating)
	case models.RatingConcedePoint:
		return rb.Lookup(ActionConcedePointRating)
	}
	return Rule{}, false
}

package actors

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/models"
	"debate-forum/internal/ratelimit"
	"debate-forum/internal/utils"
)

type RateArgumentMsg struct {
	ArgumentID uuid.UUID
	RaterID    uuid.UUID
	RatingType string
}

type RatingRecorded struct {
	Rating     *models.Rating                 `json:"rating"`
	Reputation *models.ReputationTransaction `json:"reputation"`
}

// RatingActor records insightful and concede_point ratings. The store repeats
// the self and duplicate guards inside its transaction.
type RatingActor struct {
	deps   Deps
	logger *zap.Logger
}

func NewRatingActor(deps Deps) actor.Actor {
	deps = deps.WithDefaults()
	return &RatingActor{deps: deps, logger: deps.Logger.Named("rating_actor")}
}

func (a *RatingActor) Receive(context actor.Context) {
	msg, ok := context.Message().(*RateArgumentMsg)
	if !ok {
		return
	}
	start := time.Now()

	ratingType := models.RatingType(msg.RatingType)
	rule, ok := a.deps.Rules.ForRating(ratingType)
	if !ratingType.Valid() || !ok {
		context.Respond(utils.NewValidationError([]string{"Rating type must be insightful or concede_point"}))
		return
	}

	limits := a.deps.Limits
	if !a.deps.allow(msg.RaterID.String(), ratelimit.ActionRate, limits.RatingMax, limits.RatingWindow) {
		context.Respond(utils.NewRateLimitedError(ratelimit.ActionRate))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	arg, err := a.deps.DB.GetArgument(ctx, msg.ArgumentID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load argument"))
		return
	}
	if arg.AuthorID == msg.RaterID {
		context.Respond(utils.NewSelfRatingError())
		return
	}

	rating := &models.Rating{
		ID:          uuid.New(),
		ArgumentID:  arg.ID,
		RaterUserID: msg.RaterID,
		RatingType:  ratingType,
		CreatedAt:   time.Now(),
	}
	tx, err := a.deps.DB.RecordRating(ctx, rating, rule)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrSelfRating) || utils.IsErrorCode(err, utils.ErrAlreadyRated) {
			a.logger.Debug("rating rejected", zap.Stringer("argument_id", arg.ID), zap.Error(err))
		} else {
			a.logger.Error("failed to record rating", zap.Stringer("argument_id", arg.ID), zap.Error(err))
		}
		context.Respond(asAppError(err, "failed to record rating"))
		return
	}

	a.deps.Metrics.RatingRecorded(string(ratingType))
	a.deps.Metrics.ReputationApplied(tx.ActionType)
	for _, eventType := range []string{models.EventRatingsChanged, models.EventReputationChanged} {
		a.deps.Publisher.Publish(models.ChangeEvent{
			Type:     eventType,
			DebateID: arg.DebateID.String(),
			EntityID: arg.ID.String(),
		})
	}
	a.deps.Metrics.AddOperationLatency("rate_argument", time.Since(start))
	context.Respond(&RatingRecorded{Rating: rating, Reputation: tx})
}

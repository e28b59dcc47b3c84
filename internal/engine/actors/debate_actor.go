package actors

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/models"
	"debate-forum/internal/ratelimit"
	"debate-forum/internal/utils"
	"debate-forum/internal/validation"
)

type (
	CreateDebateMsg struct {
		Title       string
		Description string
		CreatorID   uuid.UUID
	}

	GetDebateMsg struct {
		DebateID uuid.UUID
	}

	ListDebatesMsg struct {
		Limit  int
		Offset int
	}

	GetCountsMsg struct{}
)

// DebateActor handles debate topics: creation through the rate limit and
// validation gate, and the public reads.
type DebateActor struct {
	deps   Deps
	logger *zap.Logger
}

func NewDebateActor(deps Deps) actor.Actor {
	deps = deps.WithDefaults()
	return &DebateActor{deps: deps, logger: deps.Logger.Named("debate_actor")}
}

func (a *DebateActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateDebateMsg:
		a.handleCreate(context, msg)

	case *GetDebateMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		debate, err := a.deps.DB.GetDebate(ctx, msg.DebateID)
		if err != nil {
			context.Respond(asAppError(err, "failed to load debate"))
			return
		}
		context.Respond(debate)

	case *ListDebatesMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		debates, err := a.deps.DB.ListDebates(ctx, msg.Limit, msg.Offset)
		if err != nil {
			context.Respond(asAppError(err, "failed to list debates"))
			return
		}
		context.Respond(debates)

	case *GetCountsMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		n, err := a.deps.DB.CountDebates(ctx)
		if err != nil {
			context.Respond(asAppError(err, "failed to count debates"))
			return
		}
		context.Respond(n)
	}
}

func (a *DebateActor) handleCreate(context actor.Context, msg *CreateDebateMsg) {
	start := time.Now()
	limits := a.deps.Limits
	if !a.deps.allow(msg.CreatorID.String(), ratelimit.ActionCreateDebate, limits.DebateMax, limits.DebateWindow) {
		context.Respond(utils.NewRateLimitedError(ratelimit.ActionCreateDebate))
		return
	}

	title := validation.ValidateTitle(msg.Title)
	description := validation.ValidateDescription(msg.Description)
	if problems := append(title.Errors, description.Errors...); len(problems) > 0 {
		context.Respond(utils.NewValidationError(problems))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	if _, err := a.deps.DB.GetUser(ctx, msg.CreatorID); err != nil {
		context.Respond(asAppError(err, "failed to load creator"))
		return
	}

	debate := &models.Debate{
		ID:        uuid.New(),
		Title:     title.SanitizedValue,
		CreatorID: msg.CreatorID,
	}
	if description.SanitizedValue != "" {
		d := description.SanitizedValue
		debate.Description = &d
	}
	if err := a.deps.DB.SaveDebate(ctx, debate); err != nil {
		context.Respond(asAppError(err, "failed to save debate"))
		return
	}

	a.logger.Info("debate created", zap.Stringer("debate_id", debate.ID), zap.Stringer("creator_id", debate.CreatorID))
	a.deps.Metrics.AddOperationLatency("create_debate", time.Since(start))
	context.Respond(debate)
}

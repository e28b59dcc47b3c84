package actors

import (
	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/reputation"
	"debate-forum/internal/utils"
)

type (
	ApplyReputationMsg struct {
		TargetUserID      uuid.UUID
		Action            reputation.Action
		RelatedArgumentID *uuid.UUID
		GrantedBy         *uuid.UUID
	}

	GetLeaderboardMsg struct {
		Limit int
	}

	GetReputationHistoryMsg struct {
		UserID uuid.UUID
		Limit  int
	}
)

// ReputationActor selects rules and hands them to the store's atomic ledger write.
type ReputationActor struct {
	deps   Deps
	logger *zap.Logger
}

func NewReputationActor(deps Deps) actor.Actor {
	deps = deps.WithDefaults()
	return &ReputationActor{deps: deps, logger: deps.Logger.Named("reputation_actor")}
}

func (a *ReputationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *ApplyReputationMsg:
		rule, ok := a.deps.Rules.Lookup(msg.Action)
		if !ok {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Unknown reputation action: "+string(msg.Action), nil))
			return
		}
		tx := rule.Transaction(msg.TargetUserID, msg.RelatedArgumentID, msg.GrantedBy)
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		if err := a.deps.DB.ApplyReputation(ctx, &tx); err != nil {
			context.Respond(asAppError(err, "failed to apply reputation"))
			return
		}
		a.deps.Metrics.ReputationApplied(tx.ActionType)
		a.logger.Info("reputation applied",
			zap.Stringer("user_id", tx.UserID),
			zap.String("action", tx.ActionType),
			zap.Int("points", tx.Points))
		context.Respond(&tx)

	case *GetLeaderboardMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		entries, err := a.deps.DB.GetLeaderboard(ctx, msg.Limit)
		if err != nil {
			context.Respond(asAppError(err, "failed to load leaderboard"))
			return
		}
		context.Respond(entries)

	case *GetReputationHistoryMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		history, err := a.deps.DB.GetReputationHistory(ctx, msg.UserID, msg.Limit)
		if err != nil {
			context.Respond(asAppError(err, "failed to load reputation history"))
			return
		}
		context.Respond(history)
	}
}

package actors

import (
	"fmt"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/analysis"
	"debate-forum/internal/models"
	"debate-forum/internal/ratelimit"
	"debate-forum/internal/reputation"
	"debate-forum/internal/scoring"
	"debate-forum/internal/utils"
	"debate-forum/internal/validation"
)

const warnMessage = "Your argument could be stronger: consider adding evidence or concrete examples."

type (
	CreateArgumentMsg struct {
		DebateID          uuid.UUID
		ParentID          *uuid.UUID
		Text              string
		Type              string
		AuthorID          uuid.UUID
		SourceURL         *string
		SourceDescription *string
	}

	AnalyzeArgumentMsg struct {
		DebateID uuid.UUID
		Text     string
		UserID   uuid.UUID
	}

	GetDebateArgumentsMsg struct {
		DebateID uuid.UUID
	}

	ConcedeArgumentMsg struct {
		ArgumentID         uuid.UUID
		UserID             uuid.UUID
		OpponentArgumentID uuid.UUID
	}

	SubmitSteelmanMsg struct {
		ArgumentID    uuid.UUID
		UserID        uuid.UUID
		Reformulation string
	}
)

// ArgumentCreated is the reply to a successful CreateArgumentMsg.
type ArgumentCreated struct {
	Argument     *models.Argument                 `json:"argument"`
	Analysis     analysis.Outcome                 `json:"analysis"`
	QualityScore *int                             `json:"qualityScore,omitempty"`
	Tier         scoring.Tier                     `json:"tier,omitempty"`
	Warning      string                           `json:"warning,omitempty"`
	Reputation   []*models.ReputationTransaction `json:"reputation"`
}

// AnalysisPreview is the reply to AnalyzeArgumentMsg. Nothing is persisted.
type AnalysisPreview struct {
	Analysis     analysis.Outcome `json:"analysis"`
	QualityScore *int             `json:"qualityScore,omitempty"`
	Tier         scoring.Tier     `json:"tier,omitempty"`
	Warning      string           `json:"warning,omitempty"`
}

type SteelmanResult struct {
	Accepted   bool                           `json:"accepted"`
	Rationale  string                         `json:"rationale"`
	Reputation *models.ReputationTransaction `json:"reputation,omitempty"`
}

// ArgumentActor is the mutation gate for arguments: rate limit, validation,
// thread structure, AI quality analysis, persistence and reputation.
type ArgumentActor struct {
	deps            Deps
	analysisPID     *actor.PID
	reputationPID   *actor.PID
	analysisTimeout time.Duration
	logger          *zap.Logger
}

// NewArgumentActor takes the analysis worker pool and the reputation actor.
// analysisTimeout bounds the wait on the pool and should exceed the AI call timeout.
func NewArgumentActor(deps Deps, analysisPID, reputationPID *actor.PID, analysisTimeout time.Duration) actor.Actor {
	deps = deps.WithDefaults()
	return &ArgumentActor{
		deps:            deps,
		analysisPID:     analysisPID,
		reputationPID:   reputationPID,
		analysisTimeout: analysisTimeout,
		logger:          deps.Logger.Named("argument_actor"),
	}
}

func (a *ArgumentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateArgumentMsg:
		a.handleCreate(context, msg)
	case *AnalyzeArgumentMsg:
		a.handleAnalyze(context, msg)
	case *GetDebateArgumentsMsg:
		ctx, cancel := a.deps.dbContext()
		defer cancel()
		if _, err := a.deps.DB.GetDebate(ctx, msg.DebateID); err != nil {
			context.Respond(asAppError(err, "failed to load debate"))
			return
		}
		args, err := a.deps.DB.GetDebateArguments(ctx, msg.DebateID)
		if err != nil {
			context.Respond(asAppError(err, "failed to load arguments"))
			return
		}
		context.Respond(args)
	case *ConcedeArgumentMsg:
		a.handleConcede(context, msg)
	case *SubmitSteelmanMsg:
		a.handleSteelman(context, msg)
	case *actor.Started:
		a.logger.Debug("started", zap.String("pid", context.Self().String()))
	}
}

func (a *ArgumentActor) handleCreate(context actor.Context, msg *CreateArgumentMsg) {
	start := time.Now()
	limits := a.deps.Limits
	if !a.deps.allow(msg.AuthorID.String(), ratelimit.ActionCreateArgument, limits.ArgumentMax, limits.ArgumentWindow) {
		context.Respond(utils.NewRateLimitedError(ratelimit.ActionCreateArgument))
		return
	}

	text := validation.ValidateArgument(msg.Text)
	problems := append([]string(nil), text.Errors...)
	argType, ok := models.ParseArgumentType(msg.Type)
	if !ok {
		problems = append(problems, "Argument type must be one of Thesis, Pro or Contra")
	}
	sourceURL, sourceDesc, sourceProblems := a.validateSource(msg.SourceURL, msg.SourceDescription)
	problems = append(problems, sourceProblems...)
	if len(problems) > 0 {
		context.Respond(utils.NewValidationError(problems))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	debate, err := a.deps.DB.GetDebate(ctx, msg.DebateID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load debate"))
		return
	}
	if msg.ParentID != nil {
		parent, err := a.deps.DB.GetArgument(ctx, *msg.ParentID)
		if err != nil || parent.DebateID != debate.ID {
			context.Respond(utils.NewAppError(utils.ErrInvalidParent, "Parent argument must exist in the same debate", nil))
			return
		}
	}
	author, err := a.deps.DB.GetUser(ctx, msg.AuthorID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load author"))
		return
	}

	arg := &models.Argument{
		ID:                uuid.New(),
		DebateID:          debate.ID,
		ParentID:          msg.ParentID,
		Text:              text.SanitizedValue,
		Type:              argType,
		AuthorID:          author.ID,
		AuthorDisplayName: &author.Username,
		SourceURL:         sourceURL,
		SourceDescription: sourceDesc,
	}

	future := context.RequestFuture(a.analysisPID, &AnalyzeTextMsg{
		Text:          arg.Text,
		DebateContext: debateContext(debate),
	}, a.analysisTimeout)
	context.ReenterAfter(future, func(res interface{}, err error) {
		outcome := outcomeFrom(res, err)
		reply := &ArgumentCreated{Argument: arg, Analysis: outcome}

		if outcome.IsAvailable() {
			score := scoring.CalculateQualityScore(*outcome.Analysis)
			tier := scoring.ClassifyWith(score, a.deps.Scoring.BlockBelow)
			if tier == scoring.TierBlocked {
				a.logger.Info("argument blocked by quality gate",
					zap.Stringer("author_id", arg.AuthorID), zap.Int("score", score))
				context.Respond(&utils.AppError{
					Code:    utils.ErrQualityTooLow,
					Message: "Argument quality is too low to publish",
					Details: []string{fmt.Sprintf("Quality score %d is below the minimum of %d", score, a.deps.Scoring.BlockBelow)},
				})
				return
			}
			arg.QualityScore = &score
			reply.QualityScore = &score
			reply.Tier = tier
			if tier == scoring.TierWarn {
				reply.Warning = warnMessage
			}
		} else {
			a.logger.Warn("analysis unavailable, creating argument unscored",
				zap.Stringer("debate_id", arg.DebateID), zap.String("reason", outcome.Reason))
		}

		saveCtx, saveCancel := a.deps.dbContext()
		defer saveCancel()
		if err := a.deps.DB.SaveArgument(saveCtx, arg); err != nil {
			context.Respond(asAppError(err, "failed to save argument"))
			return
		}
		a.deps.Metrics.ArgumentCreated()

		related := arg.ID
		for _, rule := range a.deps.Rules.ForNewArgument(arg.SourceURL != nil, outcome.Analysis) {
			tx, appErr := a.applyReputation(context, &ApplyReputationMsg{
				TargetUserID:      arg.AuthorID,
				Action:            rule.Action,
				RelatedArgumentID: &related,
			})
			if appErr != nil {
				// The argument is already stored; a failed grant is logged, not surfaced.
				a.logger.Error("failed to apply reputation", zap.String("action", string(rule.Action)), zap.Error(appErr))
				continue
			}
			reply.Reputation = append(reply.Reputation, tx)
		}

		a.deps.Publisher.Publish(models.ChangeEvent{
			Type:     models.EventArgumentsChanged,
			DebateID: arg.DebateID.String(),
			EntityID: arg.ID.String(),
		})
		if len(reply.Reputation) > 0 {
			a.publishReputation(arg.DebateID, arg.AuthorID)
		}
		a.deps.Metrics.AddOperationLatency("create_argument", time.Since(start))
		context.Respond(reply)
	})
}

// validateSource checks the optional source pair. A description needs a URL.
func (a *ArgumentActor) validateSource(rawURL, rawDesc *string) (*string, *string, []string) {
	hasURL := rawURL != nil && strings.TrimSpace(*rawURL) != ""
	hasDesc := rawDesc != nil && strings.TrimSpace(*rawDesc) != ""
	if !hasURL && !hasDesc {
		return nil, nil, nil
	}
	if !hasURL {
		return nil, nil, []string{"A source description requires a source URL"}
	}

	var problems []string
	u := validation.ValidateSourceURL(*rawURL, a.deps.Production)
	problems = append(problems, u.Errors...)
	var desc *string
	if hasDesc {
		d := validation.ValidateSourceDescription(*rawDesc)
		problems = append(problems, d.Errors...)
		desc = &d.SanitizedValue
	}
	return &u.SanitizedValue, desc, problems
}

func (a *ArgumentActor) handleAnalyze(context actor.Context, msg *AnalyzeArgumentMsg) {
	limits := a.deps.Limits
	if !a.deps.allow(msg.UserID.String(), ratelimit.ActionAnalyze, limits.AnalyzeMax, limits.AnalyzeWindow) {
		context.Respond(utils.NewRateLimitedError(ratelimit.ActionAnalyze))
		return
	}
	text := validation.ValidateArgument(msg.Text)
	if !text.IsValid {
		context.Respond(utils.NewValidationError(text.Errors))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	debate, err := a.deps.DB.GetDebate(ctx, msg.DebateID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load debate"))
		return
	}

	future := context.RequestFuture(a.analysisPID, &AnalyzeTextMsg{
		Text:          text.SanitizedValue,
		DebateContext: debateContext(debate),
	}, a.analysisTimeout)
	context.ReenterAfter(future, func(res interface{}, err error) {
		preview := &AnalysisPreview{Analysis: outcomeFrom(res, err)}
		if preview.Analysis.IsAvailable() {
			score := scoring.CalculateQualityScore(*preview.Analysis.Analysis)
			preview.QualityScore = &score
			preview.Tier = scoring.ClassifyWith(score, a.deps.Scoring.BlockBelow)
			if preview.Tier == scoring.TierWarn {
				preview.Warning = warnMessage
			}
		}
		context.Respond(preview)
	})
}

func (a *ArgumentActor) handleConcede(context actor.Context, msg *ConcedeArgumentMsg) {
	if msg.ArgumentID == msg.OpponentArgumentID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "An argument cannot concede to itself", nil))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	own, err := a.deps.DB.GetArgument(ctx, msg.ArgumentID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load argument"))
		return
	}
	if own.AuthorID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author of an argument can concede with it", nil))
		return
	}
	opponent, err := a.deps.DB.GetArgument(ctx, msg.OpponentArgumentID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load opposing argument"))
		return
	}
	if opponent.DebateID != own.DebateID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Arguments belong to different debates", nil))
		return
	}
	if opponent.AuthorID == msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "You cannot concede a point to yourself", nil))
		return
	}

	exists, err := a.deps.DB.HasReputationTransaction(ctx, opponent.AuthorID, string(reputation.ActionArgumentConceded), opponent.ID)
	if err != nil {
		context.Respond(asAppError(err, "failed to check concessions"))
		return
	}
	if exists {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "This point has already been conceded", nil))
		return
	}

	related, grantedBy := opponent.ID, msg.UserID
	tx, appErr := a.applyReputation(context, &ApplyReputationMsg{
		TargetUserID:      opponent.AuthorID,
		Action:            reputation.ActionArgumentConceded,
		RelatedArgumentID: &related,
		GrantedBy:         &grantedBy,
	})
	if appErr != nil {
		context.Respond(appErr)
		return
	}
	a.publishReputation(own.DebateID, opponent.AuthorID)
	context.Respond(tx)
}

func (a *ArgumentActor) handleSteelman(context actor.Context, msg *SubmitSteelmanMsg) {
	limits := a.deps.Limits
	if !a.deps.allow(msg.UserID.String(), ratelimit.ActionSteelman, limits.SteelmanMax, limits.SteelmanWindow) {
		context.Respond(utils.NewRateLimitedError(ratelimit.ActionSteelman))
		return
	}
	reformulation := validation.ValidateArgument(msg.Reformulation)
	if !reformulation.IsValid {
		context.Respond(utils.NewValidationError(reformulation.Errors))
		return
	}

	ctx, cancel := a.deps.dbContext()
	defer cancel()
	original, err := a.deps.DB.GetArgument(ctx, msg.ArgumentID)
	if err != nil {
		context.Respond(asAppError(err, "failed to load argument"))
		return
	}
	if original.AuthorID == msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "You cannot steel-man your own argument", nil))
		return
	}
	exists, err := a.deps.DB.HasReputationTransaction(ctx, msg.UserID, string(reputation.ActionSteelManning), original.ID)
	if err != nil {
		context.Respond(asAppError(err, "failed to check steel-man history"))
		return
	}
	if exists {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "You have already steel-manned this argument", nil))
		return
	}

	future := context.RequestFuture(a.analysisPID, &JudgeSteelmanMsg{
		Original:      original.Text,
		Reformulation: reformulation.SanitizedValue,
	}, a.analysisTimeout)
	context.ReenterAfter(future, func(res interface{}, err error) {
		outcome := steelmanOutcomeFrom(res, err)
		if outcome.Status != analysis.StatusAvailable || outcome.Verdict == nil {
			context.Respond(utils.NewAppError(utils.ErrAnalysisUnavailable, outcome.Reason, nil))
			return
		}

		result := &SteelmanResult{Accepted: outcome.Verdict.Accepted, Rationale: outcome.Verdict.Rationale}
		if outcome.Accepted() {
			related := original.ID
			tx, appErr := a.applyReputation(context, &ApplyReputationMsg{
				TargetUserID:      msg.UserID,
				Action:            reputation.ActionSteelManning,
				RelatedArgumentID: &related,
			})
			if appErr != nil {
				context.Respond(appErr)
				return
			}
			result.Reputation = tx
			a.publishReputation(original.DebateID, msg.UserID)
		}
		context.Respond(result)
	})
}

// applyReputation asks the reputation actor to append one ledger entry.
func (a *ArgumentActor) applyReputation(context actor.Context, msg *ApplyReputationMsg) (*models.ReputationTransaction, *utils.AppError) {
	res, err := context.RequestFuture(a.reputationPID, msg, a.deps.DBTimeout).Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError("reputation_actor")
	}
	switch v := res.(type) {
	case *models.ReputationTransaction:
		return v, nil
	case *utils.AppError:
		return nil, v
	}
	return nil, utils.NewAppError(utils.ErrMessageRejected, "unexpected reply from reputation actor", nil)
}

func (a *ArgumentActor) publishReputation(debateID, userID uuid.UUID) {
	a.deps.Publisher.Publish(models.ChangeEvent{
		Type:     models.EventReputationChanged,
		DebateID: debateID.String(),
		EntityID: userID.String(),
	})
}

func debateContext(d *models.Debate) string {
	if d.Description == nil || *d.Description == "" {
		return d.Title
	}
	return d.Title + "\n\n" + *d.Description
}

package actors

import (
	"context"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debate-forum/internal/analysis"
	"debate-forum/internal/config"
	"debate-forum/internal/models"
	"debate-forum/internal/reputation"
	"debate-forum/internal/scoring"
	"debate-forum/internal/utils"
)

const validText = "Car-free centres reduce traffic deaths, as Oslo showed after 2019."

func TestCreateArgumentHighQualityWithSource(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("alice")
	debate := env.debate(author.ID)
	env.analyzer.set(analysisWith(5, true, true, ""))

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID:          debate.ID,
		Text:              validText,
		Type:              "Pro",
		AuthorID:          author.ID,
		SourceURL:         strPtr("https://example.org/oslo"),
		SourceDescription: strPtr("City report"),
	})
	created, ok := res.(*ArgumentCreated)
	require.True(t, ok, "unexpected reply %#v", res)

	require.NotNil(t, created.QualityScore)
	assert.Equal(t, 100, *created.QualityScore)
	assert.Equal(t, scoring.TierHigh, created.Tier)
	assert.Empty(t, created.Warning)
	assert.Equal(t, "alice", *created.Argument.AuthorDisplayName)
	require.Len(t, created.Reputation, 2)
	assert.Equal(t, string(reputation.ActionSourceProvided), created.Reputation[0].ActionType)
	assert.Equal(t, string(reputation.ActionHighQualityArgument), created.Reputation[1].ActionType)
	assert.Equal(t, 30, env.reputation(author.ID))

	stored, err := env.store.GetDebate(context.Background(), debate.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ArgumentCount)
	assert.Contains(t, env.publisher.types(), models.EventArgumentsChanged)
}

func TestCreateArgumentFallacyPenalty(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("bob")
	debate := env.debate(author.ID)
	env.analyzer.set(analysisWith(5, true, true, "strawman"))

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID: debate.ID, Text: validText, Type: "Contra", AuthorID: author.ID,
	})
	created, ok := res.(*ArgumentCreated)
	require.True(t, ok, "unexpected reply %#v", res)

	assert.Equal(t, 85, *created.QualityScore)
	assert.Equal(t, 20-10, env.reputation(author.ID))
}

func TestCreateArgumentWarnBand(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("carol")
	debate := env.debate(author.ID)
	env.analyzer.set(analysisWith(3, true, false, ""))

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID: debate.ID, Text: validText, Type: "Thesis", AuthorID: author.ID,
	})
	created, ok := res.(*ArgumentCreated)
	require.True(t, ok, "unexpected reply %#v", res)

	assert.Equal(t, 64, *created.QualityScore)
	assert.Equal(t, scoring.TierWarn, created.Tier)
	assert.NotEmpty(t, created.Warning)
	assert.Empty(t, created.Reputation)
}

func TestCreateArgumentBlockedByQuality(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("dave")
	debate := env.debate(author.ID)
	env.analyzer.set(analysisWith(1, false, false, "ad hominem"))

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID: debate.ID, Text: validText, Type: "Pro", AuthorID: author.ID,
	})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, utils.ErrQualityTooLow, appErr.Code)

	args, err := env.store.GetDebateArguments(context.Background(), debate.ID)
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t, 0, env.reputation(author.ID))
}

func TestCreateArgumentUnavailableAnalysisDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("erin")
	debate := env.debate(author.ID)
	env.analyzer.set(analysis.Unavailable(""))

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID: debate.ID, Text: validText, Type: "Pro", AuthorID: author.ID,
	})
	created, ok := res.(*ArgumentCreated)
	require.True(t, ok, "unexpected reply %#v", res)

	assert.Nil(t, created.QualityScore)
	assert.Nil(t, created.Argument.QualityScore)
	assert.Equal(t, analysis.StatusUnavailable, created.Analysis.Status)
	assert.Equal(t, analysis.DefaultFailureReason, created.Analysis.Reason)
}

func TestCreateArgumentValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("frank")
	debate := env.debate(author.ID)

	tests := []struct {
		name string
		msg  *CreateArgumentMsg
	}{
		{"too short", &CreateArgumentMsg{Text: "short", Type: "Pro"}},
		{"bad type", &CreateArgumentMsg{Text: validText, Type: "Maybe"}},
		{"script", &CreateArgumentMsg{Text: "<script>alert(1)</script> long enough", Type: "Pro"}},
		{"ftp source", &CreateArgumentMsg{Text: validText, Type: "Pro", SourceURL: strPtr("ftp://example.org/x")}},
		{"description without url", &CreateArgumentMsg{Text: validText, Type: "Pro", SourceDescription: strPtr("A book")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.msg.DebateID = debate.ID
			tt.msg.AuthorID = author.ID
			res := env.request(env.argumentPID, tt.msg)
			appErr, ok := res.(*utils.AppError)
			require.True(t, ok, "unexpected reply %#v", res)
			assert.Equal(t, utils.ErrValidation, appErr.Code)
			assert.NotEmpty(t, appErr.Details)
		})
	}
}

func TestCreateArgumentInvalidParent(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("gina")
	debate := env.debate(author.ID)
	other := env.debate(author.ID)
	foreign := env.argument(other.ID, author.ID, validText)
	missing := uuid.New()

	for _, parent := range []*uuid.UUID{&foreign.ID, &missing} {
		res := env.request(env.argumentPID, &CreateArgumentMsg{
			DebateID: debate.ID, ParentID: parent, Text: validText, Type: "Contra", AuthorID: author.ID,
		})
		appErr, ok := res.(*utils.AppError)
		require.True(t, ok, "unexpected reply %#v", res)
		assert.Equal(t, utils.ErrInvalidParent, appErr.Code)
	}
}

func TestCreateArgumentUnknownDebate(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("hank")

	res := env.request(env.argumentPID, &CreateArgumentMsg{
		DebateID: uuid.New(), Text: validText, Type: "Pro", AuthorID: author.ID,
	})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, utils.ErrDebateNotFound, appErr.Code)
}

func TestCreateArgumentRateLimited(t *testing.T) {
	limits := config.DefaultRateLimitConfig()
	limits.ArgumentMax = 2
	limits.ArgumentWindow = time.Hour
	env := newTestEnv(t, limits)
	author := env.user("ivy")
	debate := env.debate(author.ID)

	var codes []string
	for i := 0; i < 3; i++ {
		res := env.request(env.argumentPID, &CreateArgumentMsg{
			DebateID: debate.ID, Text: validText, Type: "Pro", AuthorID: author.ID,
		})
		if appErr, ok := res.(*utils.AppError); ok {
			codes = append(codes, appErr.Code)
		} else {
			codes = append(codes, "ok")
		}
	}
	assert.Equal(t, []string{"ok", "ok", utils.ErrTooManyRequests}, codes)
}

func TestAnalyzeArgumentPreview(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("jack")
	debate := env.debate(author.ID)
	env.analyzer.set(analysisWith(5, false, true, ""))

	res := env.request(env.argumentPID, &AnalyzeArgumentMsg{DebateID: debate.ID, Text: validText, UserID: author.ID})
	preview, ok := res.(*AnalysisPreview)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, 75, *preview.QualityScore)
	assert.Equal(t, scoring.TierHigh, preview.Tier)

	args, err := env.store.GetDebateArguments(context.Background(), debate.ID)
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Equal(t, 0, env.reputation(author.ID))
}

func TestGetDebateArgumentsOrdered(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("kim")
	debate := env.debate(author.ID)
	first := env.argument(debate.ID, author.ID, validText)
	second := env.argument(debate.ID, author.ID, validText+" Second.")

	res := env.request(env.argumentPID, &GetDebateArgumentsMsg{DebateID: debate.ID})
	args, ok := res.([]*models.Argument)
	require.True(t, ok, "unexpected reply %#v", res)
	require.Len(t, args, 2)
	assert.Equal(t, first.ID, args[0].ID)
	assert.Equal(t, second.ID, args[1].ID)
}

func TestConcedeArgument(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user("alice")
	bob := env.user("bob")
	debate := env.debate(alice.ID)
	own := env.argument(debate.ID, alice.ID, validText)
	opposing := env.argument(debate.ID, bob.ID, validText+" Counterpoint.")

	msg := &ConcedeArgumentMsg{ArgumentID: own.ID, UserID: alice.ID, OpponentArgumentID: opposing.ID}
	res := env.request(env.argumentPID, msg)
	tx, ok := res.(*models.ReputationTransaction)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, 50, tx.Points)
	assert.Equal(t, bob.ID, tx.UserID)
	require.NotNil(t, tx.GrantedByUserID)
	assert.Equal(t, alice.ID, *tx.GrantedByUserID)
	assert.Equal(t, 50, env.reputation(bob.ID))

	res = env.request(env.argumentPID, msg)
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrDuplicate, appErr.Code)
	assert.Equal(t, 50, env.reputation(bob.ID))

	// Only the author may concede with an argument.
	res = env.request(env.argumentPID, &ConcedeArgumentMsg{ArgumentID: own.ID, UserID: bob.ID, OpponentArgumentID: opposing.ID})
	appErr, ok = res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestConcedeToOwnArgumentRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user("alice")
	debate := env.debate(alice.ID)
	a := env.argument(debate.ID, alice.ID, validText)
	b := env.argument(debate.ID, alice.ID, validText+" Again.")

	res := env.request(env.argumentPID, &ConcedeArgumentMsg{ArgumentID: a.ID, UserID: alice.ID, OpponentArgumentID: b.ID})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
	assert.Equal(t, 0, env.reputation(alice.ID))
}

func TestSubmitSteelman(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user("alice")
	bob := env.user("bob")
	debate := env.debate(alice.ID)
	original := env.argument(debate.ID, alice.ID, validText)
	reformulation := "You are saying fewer cars in the centre means fewer people die in traffic."

	env.analyzer.setSteelman(analysis.SteelmanJudged(models.SteelmanVerdict{Accepted: true, Rationale: "faithful"}))
	res := env.request(env.argumentPID, &SubmitSteelmanMsg{ArgumentID: original.ID, UserID: bob.ID, Reformulation: reformulation})
	result, ok := res.(*SteelmanResult)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.True(t, result.Accepted)
	require.NotNil(t, result.Reputation)
	assert.Equal(t, 30, env.reputation(bob.ID))
	assert.Contains(t, env.publisher.types(), models.EventReputationChanged)

	res = env.request(env.argumentPID, &SubmitSteelmanMsg{ArgumentID: original.ID, UserID: bob.ID, Reformulation: reformulation})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrDuplicate, appErr.Code)

	res = env.request(env.argumentPID, &SubmitSteelmanMsg{ArgumentID: original.ID, UserID: alice.ID, Reformulation: reformulation})
	appErr, ok = res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)
}

func TestSubmitSteelmanConcurrentSubmissionsAwardOnce(t *testing.T) {
	limits := config.DefaultRateLimitConfig()
	limits.SteelmanMax = 10
	env := newTestEnv(t, limits)
	alice := env.user("alice")
	bob := env.user("bob")
	debate := env.debate(alice.ID)
	original := env.argument(debate.ID, alice.ID, validText)
	reformulation := "You are saying fewer cars in the centre means fewer people die in traffic."

	env.analyzer.setSteelman(analysis.SteelmanJudged(models.SteelmanVerdict{Accepted: true, Rationale: "faithful"}))
	env.analyzer.setDelay(50 * time.Millisecond)

	// All submissions are queued before the first verdict comes back.
	futures := make([]*actor.Future, 3)
	for i := range futures {
		futures[i] = env.system.Root.RequestFuture(env.argumentPID,
			&SubmitSteelmanMsg{ArgumentID: original.ID, UserID: bob.ID, Reformulation: reformulation}, testTimeout)
	}

	accepted, duplicates := 0, 0
	for _, f := range futures {
		res, err := f.Result()
		require.NoError(t, err)
		switch v := res.(type) {
		case *SteelmanResult:
			require.NotNil(t, v.Reputation)
			accepted++
		case *utils.AppError:
			assert.Equal(t, utils.ErrDuplicate, v.Code)
			duplicates++
		default:
			t.Fatalf("unexpected reply %#v", res)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, duplicates)
	assert.Equal(t, 30, env.reputation(bob.ID))
}

func TestSubmitSteelmanRejectedAndUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.user("alice")
	bob := env.user("bob")
	debate := env.debate(alice.ID)
	original := env.argument(debate.ID, alice.ID, validText)
	reformulation := "You just hate cars and want everyone to walk everywhere."

	env.analyzer.setSteelman(analysis.SteelmanJudged(models.SteelmanVerdict{Accepted: false, Rationale: "distorts"}))
	res := env.request(env.argumentPID, &SubmitSteelmanMsg{ArgumentID: original.ID, UserID: bob.ID, Reformulation: reformulation})
	result, ok := res.(*SteelmanResult)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.False(t, result.Accepted)
	assert.Nil(t, result.Reputation)

	env.analyzer.setSteelman(analysis.SteelmanUnavailable(""))
	res = env.request(env.argumentPID, &SubmitSteelmanMsg{ArgumentID: original.ID, UserID: bob.ID, Reformulation: reformulation})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAnalysisUnavailable, appErr.Code)
	assert.Equal(t, 0, env.reputation(bob.ID))
}

package actors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debate-forum/internal/config"
	"debate-forum/internal/models"
	"debate-forum/internal/utils"
)

func TestRateArgument(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("alice")
	rater := env.user("bob")
	debate := env.debate(author.ID)
	arg := env.argument(debate.ID, author.ID, validText)

	res := env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "insightful"})
	recorded, ok := res.(*RatingRecorded)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, 5, recorded.Reputation.Points)

	res = env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "concede_point"})
	recorded, ok = res.(*RatingRecorded)
	require.True(t, ok, "unexpected reply %#v", res)
	assert.Equal(t, 20, recorded.Reputation.Points)

	assert.Equal(t, 25, env.reputation(author.ID))
	assert.Equal(t, 0, env.reputation(rater.ID))
	assert.Contains(t, env.publisher.types(), models.EventRatingsChanged)
}

func TestRateArgumentRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("alice")
	rater := env.user("bob")
	debate := env.debate(author.ID)
	arg := env.argument(debate.ID, author.ID, validText)

	first := env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "insightful"})
	require.IsType(t, &RatingRecorded{}, first)

	tests := []struct {
		name string
		msg  *RateArgumentMsg
		code string
	}{
		{"self rating", &RateArgumentMsg{ArgumentID: arg.ID, RaterID: author.ID, RatingType: "insightful"}, utils.ErrSelfRating},
		{"duplicate", &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "insightful"}, utils.ErrAlreadyRated},
		{"unknown type", &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "funny"}, utils.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.request(env.ratingPID, tt.msg)
			appErr, ok := res.(*utils.AppError)
			require.True(t, ok, "unexpected reply %#v", res)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
	// Rejections never touch the ledger.
	assert.Equal(t, 5, env.reputation(author.ID))
}

func TestRateArgumentRateLimited(t *testing.T) {
	limits := config.DefaultRateLimitConfig()
	limits.RatingMax = 1
	limits.RatingWindow = time.Hour
	env := newTestEnv(t, limits)
	author := env.user("alice")
	rater := env.user("bob")
	debate := env.debate(author.ID)
	a := env.argument(debate.ID, author.ID, validText)
	b := env.argument(debate.ID, author.ID, validText+" More.")

	require.IsType(t, &RatingRecorded{}, env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: a.ID, RaterID: rater.ID, RatingType: "insightful"}))
	res := env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: b.ID, RaterID: rater.ID, RatingType: "insightful"})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrTooManyRequests, appErr.Code)
}

func TestReputationLeaderboardAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	author := env.user("alice")
	rater := env.user("bob")
	debate := env.debate(author.ID)
	arg := env.argument(debate.ID, author.ID, validText)
	env.request(env.ratingPID, &RateArgumentMsg{ArgumentID: arg.ID, RaterID: rater.ID, RatingType: "concede_point"})

	res := env.request(env.reputationPID, &GetLeaderboardMsg{Limit: 10})
	board, ok := res.([]*models.LeaderboardEntry)
	require.True(t, ok, "unexpected reply %#v", res)
	require.NotEmpty(t, board)
	assert.Equal(t, author.ID, board[0].UserID)
	assert.Equal(t, 20, board[0].Reputation)

	res = env.request(env.reputationPID, &GetReputationHistoryMsg{UserID: author.ID})
	history, ok := res.([]*models.ReputationTransaction)
	require.True(t, ok, "unexpected reply %#v", res)
	require.Len(t, history, 1)
	assert.Equal(t, "concede_point_rating", history[0].ActionType)

	res = env.request(env.reputationPID, &ApplyReputationMsg{TargetUserID: author.ID, Action: "made_up"})
	appErr, ok := res.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

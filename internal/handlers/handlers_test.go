package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"debate-forum/internal/api"
	"debate-forum/internal/middleware"
	"debate-forum/internal/utils"
)

func testServer() *Server {
	return &Server{
		Tokens: middleware.NewTokenIssuer("handler-secret", time.Hour),
		Logger: zap.NewNop(),
	}
}

func TestWriteAppErrorMapsCodes(t *testing.T) {
	tests := []struct {
		err    *utils.AppError
		status int
	}{
		{utils.NewSelfRatingError(), http.StatusForbidden},
		{utils.NewAlreadyRatedError("insightful"), http.StatusConflict},
		{utils.NewValidationError([]string{"Title is required"}), http.StatusBadRequest},
		{utils.NewRateLimitedError("rate"), http.StatusTooManyRequests},
		{utils.NewAppError(utils.ErrQualityTooLow, "too low", nil), http.StatusUnprocessableEntity},
		{utils.NewAppError(utils.ErrAnalysisUnavailable, "Analyse fehlgeschlagen.", nil), http.StatusServiceUnavailable},
		{utils.NewDebateNotFoundError("x"), http.StatusNotFound},
	}
	s := testServer()
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.writeAppError(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Code, body.Code)
			assert.Equal(t, tt.err.Details, body.Details)
		})
	}
}

func TestAuthenticateWrites(t *testing.T) {
	s := testServer()
	var seen uuid.UUID
	h := s.authenticateWrites(func(w http.ResponseWriter, r *http.Request) {
		seen = currentUser(r)
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/debate?id=x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uuid.Nil, seen)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/debate", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	userID := uuid.New()
	token, err := s.Tokens.GenerateToken(userID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/debate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, userID, seen)
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/debates?limit=20&offset=-3", nil)
	assert.Equal(t, 20, queryInt(r, "limit", 0))
	assert.Equal(t, 7, queryInt(r, "offset", 7))
	assert.Equal(t, 7, queryInt(r, "missing", 7))

	id, err := optionalUUID("")
	require.NoError(t, err)
	assert.Nil(t, id)
	_, err = optionalUUID("not-a-uuid")
	assert.Error(t, err)
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"debate-forum/internal/engine/actors"
)

type RateArgumentRequest struct {
	ArgumentID string `json:"argumentId"`
	RatingType string `json:"ratingType"`
}

// HandleRating records an insightful or concede_point rating
func (s *Server) HandleRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req RateArgumentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}
		argumentID, err := uuid.Parse(req.ArgumentID)
		if err != nil {
			s.badRequest(w, "Invalid argument ID format")
			return
		}
		result, ok := s.ask(w, s.Engine.GetRatingActor(), &actors.RateArgumentMsg{
			ArgumentID: argumentID,
			RaterID:    currentUser(r),
			RatingType: req.RatingType,
		}, "rate_argument")
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func (s *Server) HandleLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		result, ok := s.ask(w, s.Engine.GetReputationActor(), &actors.GetLeaderboardMsg{
			Limit: queryInt(r, "limit", 0),
		}, "leaderboard")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleReputationHistory lists the caller's ledger entries, newest first.
func (s *Server) HandleReputationHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		result, ok := s.ask(w, s.Engine.GetReputationActor(), &actors.GetReputationHistoryMsg{
			UserID: currentUser(r),
			Limit:  queryInt(r, "limit", 0),
		}, "reputation_history")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

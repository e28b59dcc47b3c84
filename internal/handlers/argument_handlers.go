package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"debate-forum/internal/engine/actors"
)

// CreateArgumentRequest represents a request to post an argument
type CreateArgumentRequest struct {
	DebateID          string  `json:"debateId"`
	ParentID          string  `json:"parentId,omitempty"`
	Text              string  `json:"text"`
	Type              string  `json:"type"`
	SourceURL         *string `json:"sourceUrl,omitempty"`
	SourceDescription *string `json:"sourceDescription,omitempty"`
}

type AnalyzeArgumentRequest struct {
	DebateID string `json:"debateId"`
	Text     string `json:"text"`
}

type ConcedeRequest struct {
	ArgumentID         string `json:"argumentId"`
	OpponentArgumentID string `json:"opponentArgumentId"`
}

type SteelmanRequest struct {
	ArgumentID    string `json:"argumentId"`
	Reformulation string `json:"reformulation"`
}

// HandleCreateArgument runs a new argument through the mutation gate
func (s *Server) HandleCreateArgument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req CreateArgumentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}
		debateID, err := uuid.Parse(req.DebateID)
		if err != nil {
			s.badRequest(w, "Invalid debate ID format")
			return
		}
		parentID, err := optionalUUID(req.ParentID)
		if err != nil {
			s.badRequest(w, "Invalid parent ID format")
			return
		}

		result, ok := s.ask(w, s.Engine.GetArgumentActor(), &actors.CreateArgumentMsg{
			DebateID:          debateID,
			ParentID:          parentID,
			Text:              req.Text,
			Type:              req.Type,
			AuthorID:          currentUser(r),
			SourceURL:         req.SourceURL,
			SourceDescription: req.SourceDescription,
		}, "create_argument")
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// HandleAnalyzeArgument previews the quality verdict without posting
func (s *Server) HandleAnalyzeArgument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req AnalyzeArgumentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}
		debateID, err := uuid.Parse(req.DebateID)
		if err != nil {
			s.badRequest(w, "Invalid debate ID format")
			return
		}
		result, ok := s.ask(w, s.Engine.GetArgumentActor(), &actors.AnalyzeArgumentMsg{
			DebateID: debateID,
			Text:     req.Text,
			UserID:   currentUser(r),
		}, "analyze_argument")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) HandleConcedeArgument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req ConcedeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}
		argumentID, err1 := uuid.Parse(req.ArgumentID)
		opponentID, err2 := uuid.Parse(req.OpponentArgumentID)
		if err1 != nil || err2 != nil {
			s.badRequest(w, "Invalid argument ID format")
			return
		}
		result, ok := s.ask(w, s.Engine.GetArgumentActor(), &actors.ConcedeArgumentMsg{
			ArgumentID:         argumentID,
			UserID:             currentUser(r),
			OpponentArgumentID: opponentID,
		}, "concede_argument")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) HandleSteelman() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req SteelmanRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}
		argumentID, err := uuid.Parse(req.ArgumentID)
		if err != nil {
			s.badRequest(w, "Invalid argument ID format")
			return
		}
		result, ok := s.ask(w, s.Engine.GetArgumentActor(), &actors.SubmitSteelmanMsg{
			ArgumentID:    argumentID,
			UserID:        currentUser(r),
			Reformulation: req.Reformulation,
		}, "submit_steelman")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

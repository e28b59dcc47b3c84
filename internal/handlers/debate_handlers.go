package handlers

import (
	"net/http"

	"debate-forum/internal/engine/actors"
)

// CreateDebateRequest represents a request to open a new debate
type CreateDebateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleDebate creates a debate on POST and returns one on GET ?id=.
func (s *Server) HandleDebate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req CreateDebateRequest
			if err := decodeJSON(w, r, &req); err != nil {
				s.badRequest(w, "Invalid request")
				return
			}
			result, ok := s.ask(w, s.Engine.GetDebateActor(), &actors.CreateDebateMsg{
				Title:       req.Title,
				Description: req.Description,
				CreatorID:   currentUser(r),
			}, "create_debate")
			if !ok {
				return
			}
			writeJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			debateID, err := queryUUID(r, "id")
			if err != nil {
				s.badRequest(w, "Invalid debate ID format")
				return
			}
			result, ok := s.ask(w, s.Engine.GetDebateActor(), &actors.GetDebateMsg{DebateID: debateID}, "get_debate")
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleListDebates pages through debates, newest first.
func (s *Server) HandleListDebates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		result, ok := s.ask(w, s.Engine.GetDebateActor(), &actors.ListDebatesMsg{
			Limit:  queryInt(r, "limit", 0),
			Offset: queryInt(r, "offset", 0),
		}, "list_debates")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleDebateArguments returns the flat argument thread of ?debateId=.
func (s *Server) HandleDebateArguments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		debateID, err := queryUUID(r, "debateId")
		if err != nil {
			s.badRequest(w, "Invalid debate ID format")
			return
		}
		result, ok := s.ask(w, s.Engine.GetArgumentActor(), &actors.GetDebateArgumentsMsg{DebateID: debateID}, "get_arguments")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

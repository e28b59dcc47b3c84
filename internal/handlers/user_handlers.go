package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/api"
	"debate-forum/internal/engine/actors"
	"debate-forum/internal/models"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req RegisterUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}

		result, ok := s.ask(w, s.Engine.GetUserSupervisor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		}, "register_user")
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		var req LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.badRequest(w, "Invalid request")
			return
		}

		result, ok := s.ask(w, s.Engine.GetUserSupervisor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		}, "login")
		if !ok {
			return
		}

		loginResp, isLogin := result.(*api.LoginResponse)
		if !isLogin {
			s.Logger.Error("unexpected login reply", zap.String("type", fmt.Sprintf("%T", result)))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if !loginResp.Success {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, loginResp)
	}
}

// HandleUserProfile returns the caller's profile, or another user's with ?userId=.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		userID := currentUser(r)
		if raw := r.URL.Query().Get("userId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				s.badRequest(w, "Invalid user ID format")
				return
			}
			userID = id
		}

		result, ok := s.ask(w, s.Engine.GetUserSupervisor(), &actors.GetUserProfileMsg{UserID: userID}, "get_profile")
		if !ok {
			return
		}
		user := result.(*models.UserProfile)
		writeJSON(w, http.StatusOK, struct {
			ID         string    `json:"id"`
			Username   string    `json:"username"`
			Reputation int       `json:"reputation"`
			CreatedAt  time.Time `json:"createdAt"`
		}{
			ID:         user.ID.String(),
			Username:   user.Username,
			Reputation: user.Reputation,
			CreatedAt:  user.CreatedAt,
		})
	}
}

package actors

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"debate-forum/internal/api"
	"debate-forum/internal/models"
	"debate-forum/internal/utils"
	"debate-forum/internal/validation"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

// TokenGenerator issues session tokens on successful login.
type TokenGenerator interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}
)

// UserSupervisor owns account registration, login and profile reads.
type UserSupervisor struct {
	deps     Deps
	tokens   TokenGenerator
	hashCost int
	logger   *zap.Logger
}

// NewUserSupervisor uses bcrypt.DefaultCost when hashCost is zero.
func NewUserSupervisor(deps Deps, tokens TokenGenerator, hashCost int) actor.Actor {
	deps = deps.WithDefaults()
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserSupervisor{
		deps:     deps,
		tokens:   tokens,
		hashCost: hashCost,
		logger:   deps.Logger.Named("user_supervisor"),
	}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		s.handleRegister(context, msg)
	case *LoginMsg:
		s.handleLogin(context, msg)
	case *GetUserProfileMsg:
		ctx, cancel := s.deps.dbContext()
		defer cancel()
		user, err := s.deps.DB.GetUser(ctx, msg.UserID)
		if err != nil {
			context.Respond(asAppError(err, "failed to load profile"))
			return
		}
		context.Respond(user)
	case *actor.Started:
		s.logger.Debug("started", zap.String("pid", context.Self().String()))
	}
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	start := time.Now()

	var problems []string
	username := validation.ValidateUsername(msg.Username)
	if !username.IsValid {
		problems = append(problems, username.Errors...)
	}
	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		problems = append(problems, "Email address is not valid")
	}
	if utf8.RuneCountInString(msg.Password) < minPasswordLength {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	if len(msg.Password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("Password must not exceed %d bytes", maxPasswordBytes))
	}
	if len(problems) > 0 {
		context.Respond(utils.NewValidationError(problems))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), s.hashCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	user := &models.UserProfile{
		ID:             uuid.New(),
		Username:       username.SanitizedValue,
		Email:          email,
		HashedPassword: string(hashed),
	}
	ctx, cancel := s.deps.dbContext()
	defer cancel()
	if err := s.deps.DB.SaveUser(ctx, user); err != nil {
		context.Respond(asAppError(err, "failed to save user"))
		return
	}

	s.logger.Info("user registered", zap.Stringer("user_id", user.ID))
	s.deps.Metrics.AddOperationLatency("register_user", time.Since(start))
	context.Respond(user)
}

func (s *UserSupervisor) handleLogin(context actor.Context, msg *LoginMsg) {
	invalid := &api.LoginResponse{Success: false, Error: "Invalid credentials"}

	ctx, cancel := s.deps.dbContext()
	defer cancel()
	user, err := s.deps.DB.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(msg.Email)))
	if err != nil {
		if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
			s.logger.Error("login lookup failed", zap.Error(err))
		}
		context.Respond(invalid)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("password comparison failed", zap.Error(err))
		}
		context.Respond(invalid)
		return
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", zap.Error(err))
		context.Respond(&api.LoginResponse{Success: false, Error: "Login failed"})
		return
	}
	context.Respond(&api.LoginResponse{
		Success:  true,
		Token:    token,
		UserID:   user.ID.String(),
		Username: user.Username,
	})
}

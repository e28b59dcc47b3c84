package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/api"
	"debate-forum/internal/engine"
	"debate-forum/internal/middleware"
	"debate-forum/internal/utils"
	"debate-forum/internal/websocket"
)

const maxBodyBytes = 64 << 10

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Hub            *websocket.Hub
	Tokens         *middleware.TokenIssuer
	Metrics        *utils.MetricsCollector
	Logger         *zap.Logger
	RequestTimeout time.Duration
	AIProvider     string
	AllowedOrigins []string
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	hub *websocket.Hub,
	tokens *middleware.TokenIssuer,
	metrics *utils.MetricsCollector,
	logger *zap.Logger,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Hub:            hub,
		Tokens:         tokens,
		Metrics:        metrics,
		Logger:         logger.Named("http"),
		RequestTimeout: 30 * time.Second,
		AIProvider:     "none",
		AllowedOrigins: []string{"*"},
	}
}

// Routes registers every endpoint on a fresh mux. Metrics and CORS are
// applied by the caller.
func (s *Server) Routes() *http.ServeMux {
	auth := func(h http.HandlerFunc) http.HandlerFunc { return s.Tokens.Authenticate(h, s.Logger) }

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HandleHealth())

	mux.HandleFunc("/user/register", s.HandleUserRegistration())
	mux.HandleFunc("/user/login", s.HandleUserLogin())
	mux.HandleFunc("/user/profile", auth(s.HandleUserProfile()))

	mux.HandleFunc("/debate", s.authenticateWrites(s.HandleDebate()))
	mux.HandleFunc("/debates", s.HandleListDebates())
	mux.HandleFunc("/debate/arguments", s.HandleDebateArguments())

	mux.HandleFunc("/argument", auth(s.HandleCreateArgument()))
	mux.HandleFunc("/argument/analyze", auth(s.HandleAnalyzeArgument()))
	mux.HandleFunc("/argument/concede", auth(s.HandleConcedeArgument()))
	mux.HandleFunc("/argument/steelman", auth(s.HandleSteelman()))

	mux.HandleFunc("/rating", auth(s.HandleRating()))
	mux.HandleFunc("/reputation/leaderboard", s.HandleLeaderboard())
	mux.HandleFunc("/reputation/history", auth(s.HandleReputationHistory()))

	mux.HandleFunc("/ws", s.HandleWebSocket())
	return mux
}

// authenticateWrites leaves GET open and requires a token for everything else.
func (s *Server) authenticateWrites(h http.HandlerFunc) http.HandlerFunc {
	protected := s.Tokens.Authenticate(h, s.Logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h(w, r)
			return
		}
		protected(w, r)
	}
}

// ask sends msg to pid and writes the error response itself when the actor
// replies with an AppError or does not reply in time.
func (s *Server) ask(w http.ResponseWriter, pid *actor.PID, msg interface{}, operation string) (interface{}, bool) {
	result, err := s.Context.RequestFuture(pid, msg, s.RequestTimeout).Result()
	if err != nil {
		s.Logger.Error("actor request failed", zap.String("operation", operation), zap.Error(err))
		s.writeAppError(w, utils.NewActorTimeoutError(operation))
		return nil, false
	}
	if appErr, ok := result.(*utils.AppError); ok {
		s.writeAppError(w, appErr)
		return nil, false
	}
	return result, true
}

func (s *Server) writeAppError(w http.ResponseWriter, appErr *utils.AppError) {
	status := utils.AppErrorToHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.String("code", appErr.Code), zap.Error(appErr))
	}
	writeJSON(w, status, api.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.writeAppError(w, utils.NewAppError(utils.ErrInvalidInput, message, nil))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func queryUUID(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get(key))
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// optionalUUID parses a JSON string field that may be empty.
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func currentUser(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

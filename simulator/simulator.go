package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SimConfig struct {
	NumUsers          int
	NumDebates        int
	SimulationTime    time.Duration
	ArgumentFrequency float64 // arguments per user per hour
	RatingFrequency   float64 // ratings per user per hour
	ZipfS             float64
	Workers           int
	TickInterval      time.Duration
	EngineURL         string
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	TotalDebates    int
	TotalArguments  int
	TotalRatings    int
	RateLimited     int
	QualityBlocked  int
}

// SimulatedUser tracks one account driven by the simulator
type SimulatedUser struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Token     string
	Arguments []uuid.UUID
	Rated     map[uuid.UUID]bool
}

type simArgument struct {
	ID       uuid.UUID
	DebateID uuid.UUID
	AuthorID uuid.UUID
}

// Simulator drives a running engine over HTTP with a population of users.
type Simulator struct {
	config    SimConfig
	stats     *SimulationStats
	users     []*SimulatedUser
	debates   []uuid.UUID
	arguments []simArgument
	client    *http.Client
	rng       *rand.Rand
	logger    *zap.Logger
	mu        sync.RWMutex
}

// statusError is returned for non-2xx replies so callers can inspect the code.
type statusError struct {
	Status int
	Code   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status %d (%s)", e.Status, e.Code)
}

func NewSimulator(config SimConfig, logger *zap.Logger) *Simulator {
	if config.Workers < 1 {
		config.Workers = 5
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		client: &http.Client{Timeout: 30 * time.Second},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger.Named("simulator"),
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("starting simulation",
		zap.String("engine_url", s.config.EngineURL),
		zap.Int("users", s.config.NumUsers),
		zap.Int("debates", s.config.NumDebates),
		zap.Duration("duration", s.config.SimulationTime))

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()
	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	s.logger.Info("phase 1: creating users", zap.Int("count", s.config.NumUsers))
	if err := s.createInitialUsers(ctx); err != nil {
		return err
	}
	if len(s.users) == 0 {
		return fmt.Errorf("no users could be registered")
	}

	s.logger.Info("phase 2: opening debates", zap.Int("count", s.config.NumDebates))
	s.createDebates(ctx)
	if len(s.debates) == 0 {
		return fmt.Errorf("no debates could be created")
	}
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	jobs := make(chan int)
	results := make(chan *SimulatedUser)
	var wg sync.WaitGroup

	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for n := range jobs {
				user := &SimulatedUser{
					Username: fmt.Sprintf("user_%d", n),
					Email:    fmt.Sprintf("user_%d@test.com", n),
					Rated:    make(map[uuid.UUID]bool),
				}
				// Exponential backoff between attempts
				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerAndLogin(ctx, user); err == nil {
						results <- user
						break
					}
					backoff := time.Duration(math.Pow(2, float64(retries))) * 100 * time.Millisecond
					s.logger.Debug("retrying registration",
						zap.Int("worker", workerID), zap.String("user", user.Username), zap.Error(err))
					select {
					case <-ctx.Done():
						return
					case <-time.After(backoff):
					}
				}
				if err != nil {
					s.logger.Warn("failed to register user", zap.String("user", user.Username), zap.Error(err))
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for i := 0; i < s.config.NumUsers; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for user := range results {
		s.mu.Lock()
		s.users = append(s.users, user)
		s.mu.Unlock()
	}
	s.logger.Info("users created", zap.Int("count", len(s.users)))
	return ctx.Err()
}

func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser) error {
	var registered struct {
		ID uuid.UUID `json:"id"`
	}
	err := s.makeRequest(ctx, http.MethodPost, "/user/register", "", map[string]string{
		"username": user.Username,
		"email":    user.Email,
		"password": "testpass123",
	}, &registered)
	var se *statusError
	if err != nil && !(asStatus(err, &se) && se.Status == http.StatusConflict) {
		return err
	}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		UserID  string `json:"userId"`
	}
	if err := s.makeRequest(ctx, http.MethodPost, "/user/login", "", map[string]string{
		"email":    user.Email,
		"password": "testpass123",
	}, &login); err != nil {
		return err
	}
	id, err := uuid.Parse(login.UserID)
	if err != nil || !login.Success {
		return fmt.Errorf("login for %s did not succeed", user.Username)
	}
	user.ID = id
	user.Token = login.Token
	return nil
}

var topics = []string{
	"Should cities ban private cars from their centres?",
	"Is nuclear power necessary for decarbonisation?",
	"Should voting be compulsory?",
	"Does remote work raise productivity?",
	"Should social media require age verification?",
	"Is a four-day work week economically viable?",
	"Should homework be abolished in primary schools?",
	"Are standardised tests a fair admission criterion?",
}

func (s *Simulator) createDebates(ctx context.Context) {
	// The first tenth of users open the debates.
	numCreators := len(s.users)/10 + 1
	for i := 0; i < s.config.NumDebates; i++ {
		creator := s.users[i%numCreators]
		title := fmt.Sprintf("%s (#%d)", topics[i%len(topics)], i+1)

		var debate struct {
			ID uuid.UUID `json:"id"`
		}
		if err := s.makeRequest(ctx, http.MethodPost, "/debate", creator.Token, map[string]string{
			"title":       title,
			"description": "Simulated debate opened by " + creator.Username,
		}, &debate); err != nil {
			s.logger.Warn("failed to create debate", zap.String("title", title), zap.Error(err))
			s.countRejection(err)
			continue
		}
		s.mu.Lock()
		s.debates = append(s.debates, debate.ID)
		s.mu.Unlock()
		s.stats.mu.Lock()
		s.stats.TotalDebates++
		s.stats.mu.Unlock()
	}
}

// getZipfIndex picks an index below max, favouring low indices.
func (s *Simulator) getZipfIndex(max int) int {
	if max <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	zipf := rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(max-1))
	return int(zipf.Uint64())
}

func (s *Simulator) makeRequest(ctx context.Context, method, endpoint, token string, data, out interface{}) error {
	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequestMetrics(start, err)
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err == nil && resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Code string `json:"code"`
		}
		json.Unmarshal(payload, &apiErr)
		err = &statusError{Status: resp.StatusCode, Code: apiErr.Code}
	}
	s.recordRequestMetrics(start, err)
	if err != nil {
		return err
	}
	if out != nil {
		return json.Unmarshal(payload, out)
	}
	return nil
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}
	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

// countRejection tallies the expected rejections the engine hands out under load.
func (s *Simulator) countRejection(err error) {
	var se *statusError
	if !asStatus(err, &se) {
		return
	}
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	switch se.Code {
	case "TOO_MANY_REQUESTS":
		s.stats.RateLimited++
	case "QUALITY_TOO_LOW":
		s.stats.QualityBlocked++
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			s.logger.Info("simulation metrics",
				zap.Float64("requests_per_second", m.RequestsPerSecond),
				zap.Duration("average_latency", m.AverageLatency),
				zap.Int("arguments", m.TotalArguments),
				zap.Int("ratings", m.TotalRatings),
				zap.Int("rate_limited", m.RateLimited),
				zap.Int("errors", m.ErrorCount))
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	TotalDebates      int
	TotalArguments    int
	TotalRatings      int
	RateLimited       int
	QualityBlocked    int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	users := len(s.users)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()
	elapsed := time.Since(s.stats.StartTime)
	return SimulationMetrics{
		TotalUsers:        users,
		TotalDebates:      s.stats.TotalDebates,
		TotalArguments:    s.stats.TotalArguments,
		TotalRatings:      s.stats.TotalRatings,
		RateLimited:       s.stats.RateLimited,
		QualityBlocked:    s.stats.QualityBlocked,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}

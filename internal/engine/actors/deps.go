package actors

import (
	stdctx "context"
	"errors"
	"time"

	"go.uber.org/zap"

	"debate-forum/internal/config"
	"debate-forum/internal/database"
	"debate-forum/internal/models"
	"debate-forum/internal/ratelimit"
	"debate-forum/internal/reputation"
	"debate-forum/internal/utils"
)

// Publisher receives change events after successful mutations.
type Publisher interface {
	Publish(event models.ChangeEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.ChangeEvent) {}

// Deps bundles what the domain actors share.
type Deps struct {
	DB        database.DBAdapter
	Limiter   *ratelimit.Limiter
	Limits    *config.RateLimitConfig
	Scoring   *config.ScoringConfig
	Rules     *reputation.RuleBook
	Metrics   *utils.MetricsCollector
	Publisher Publisher
	Logger    *zap.Logger

	// Production enables the private-host check on source URLs.
	Production bool
	// DBTimeout bounds every store call made from an actor.
	DBTimeout time.Duration
}

// WithDefaults fills optional fields so tests can pass a minimal Deps.
func (d Deps) WithDefaults() Deps {
	if d.Limiter == nil {
		d.Limiter = ratelimit.New()
	}
	if d.Limits == nil {
		d.Limits = config.DefaultRateLimitConfig()
	}
	if d.Scoring == nil {
		d.Scoring = config.DefaultScoringConfig()
	}
	if d.Rules == nil {
		d.Rules = reputation.NewRuleBook(d.Scoring)
	}
	if d.Metrics == nil {
		d.Metrics = utils.NewMetricsCollector(nil)
	}
	if d.Publisher == nil {
		d.Publisher = noopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.DBTimeout <= 0 {
		d.DBTimeout = 5 * time.Second
	}
	return d
}

func (d Deps) dbContext() (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.Background(), d.DBTimeout)
}

// allow applies the rate limit for action and records denials.
func (d Deps) allow(subject, action string, max int, window time.Duration) bool {
	if d.Limiter.Allow(subject, action, max, window) {
		return true
	}
	d.Metrics.RateLimited(action)
	return false
}

// asAppError keeps AppErrors intact and wraps anything else as a database error.
func asAppError(err error, message string) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewAppError(utils.ErrDatabase, message, err)
}

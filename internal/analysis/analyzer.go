package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Analyzer is what the engine depends on. Implementations never return an
// error; every failure is an Unavailable outcome.
type Analyzer interface {
	Analyze(ctx context.Context, text, debateContext string) Outcome
	ValidateSteelman(ctx context.Context, original, reformulation string) SteelmanOutcome
}

// Completer sends one system+user prompt pair to a model that is asked to
// answer with a JSON object, and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Service adds prompting, parsing, caching and timeouts around a Completer.
type Service struct {
	completer Completer
	cache     *Cache
	timeout   time.Duration
	logger    *zap.Logger
}

func NewService(completer Completer, cache *Cache, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		completer: completer,
		cache:     cache,
		timeout:   timeout,
		logger:    logger.With(zap.String("provider", completer.Name())),
	}
}

func (s *Service) Analyze(ctx context.Context, text, debateContext string) Outcome {
	key := Key(debateContext, text)
	if s.cache != nil {
		if o, ok := s.cache.Get(key); ok {
			return o
		}
	}

	raw, err := s.complete(ctx, analysisSystemPrompt, fmt.Sprintf(analysisUserPrompt, debateContext, text))
	if err != nil {
		s.logger.Warn("analysis request failed", zap.Error(err))
		return Unavailable("")
	}
	o := ParseAnalysis([]byte(raw))
	if !o.IsAvailable() {
		s.logger.Warn("analysis response rejected", zap.String("reason", o.Reason))
		return o
	}
	if s.cache != nil {
		s.cache.Add(key, o)
	}
	return o
}

func (s *Service) ValidateSteelman(ctx context.Context, original, reformulation string) SteelmanOutcome {
	raw, err := s.complete(ctx, steelmanSystemPrompt, fmt.Sprintf(steelmanUserPrompt, original, reformulation))
	if err != nil {
		s.logger.Warn("steelman request failed", zap.Error(err))
		return SteelmanUnavailable("")
	}
	o := ParseSteelman([]byte(raw))
	if o.Status != StatusAvailable {
		s.logger.Warn("steelman response rejected", zap.String("reason", o.Reason))
	}
	return o
}

func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := s.completer.Complete(ctx, system, user)
	s.logger.Debug("completion finished", zap.Duration("latency", time.Since(start)), zap.Bool("ok", err == nil))
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("provider timed out after %s: %w", s.timeout, err)
	}
	return raw, err
}

// Disabled is used when no provider is configured.
type Disabled struct{}

const disabledReason = "AI analysis is not configured"

func (Disabled) Analyze(context.Context, string, string) Outcome {
	return Unavailable(disabledReason)
}

func (Disabled) ValidateSteelman(context.Context, string, string) SteelmanOutcome {
	return SteelmanUnavailable(disabledReason)
}

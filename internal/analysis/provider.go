package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"debate-forum/internal/config"
)

// NewFromConfig builds the analyzer selected by AI_PROVIDER.
func NewFromConfig(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (Analyzer, error) {
	var completer Completer
	switch cfg.Provider {
	case "gemini":
		g, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		completer = g
	case "openai":
		o, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		completer = o
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
	return NewService(completer, NewCache(cfg.CacheSize, cfg.CacheTTL), cfg.Timeout, logger), nil
}

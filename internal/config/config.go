// internal/config/config.go
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	Host           string        `envconfig:"HOST" default:"0.0.0.0"`
	MetricsEnabled bool          `envconfig:"METRICS_ENABLED" default:"true"`
	Mode           string        `envconfig:"APP_MODE" default:"development"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// IsProduction reports whether private-network source URLs must be rejected.
func (s *ServerConfig) IsProduction() bool {
	return s.Mode == ModeProduction
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"postgres"` // "postgres" or "memory"
	URI      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"postgres"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"require"`
}

// AuthConfig holds JWT settings
type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

// AIConfig selects and configures the argument analysis provider
type AIConfig struct {
	Provider     string        `envconfig:"AI_PROVIDER" default:"none"` // "gemini", "openai" or "none"
	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OpenAIAPIKey string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout      time.Duration `envconfig:"AI_TIMEOUT" default:"20s"`
	Workers      int           `envconfig:"AI_WORKERS" default:"4"`
	CacheSize    int           `envconfig:"ANALYSIS_CACHE_SIZE" default:"512"`
	CacheTTL     time.Duration `envconfig:"ANALYSIS_CACHE_TTL" default:"30m"`
}

// RateLimitConfig holds the per-action windows of the mutation gate
type RateLimitConfig struct {
	ArgumentMax    int           `envconfig:"RATE_LIMIT_ARGUMENT_MAX" default:"5"`
	ArgumentWindow time.Duration `envconfig:"RATE_LIMIT_ARGUMENT_WINDOW" default:"1m"`
	DebateMax      int           `envconfig:"RATE_LIMIT_DEBATE_MAX" default:"3"`
	DebateWindow   time.Duration `envconfig:"RATE_LIMIT_DEBATE_WINDOW" default:"1h"`
	RatingMax      int           `envconfig:"RATE_LIMIT_RATING_MAX" default:"20"`
	RatingWindow   time.Duration `envconfig:"RATE_LIMIT_RATING_WINDOW" default:"1m"`
	AnalyzeMax     int           `envconfig:"RATE_LIMIT_ANALYZE_MAX" default:"10"`
	AnalyzeWindow  time.Duration `envconfig:"RATE_LIMIT_ANALYZE_WINDOW" default:"1m"`
	SteelmanMax    int           `envconfig:"RATE_LIMIT_STEELMAN_MAX" default:"3"`
	SteelmanWindow time.Duration `envconfig:"RATE_LIMIT_STEELMAN_WINDOW" default:"5m"`
	SweepSchedule  string        `envconfig:"RATE_LIMIT_SWEEP_SCHEDULE" default:"@every 5m"`
}

// ScoringConfig holds the product decisions around quality and reputation
type ScoringConfig struct {
	BlockBelow     int `envconfig:"QUALITY_BLOCK_BELOW" default:"30"`
	FallacyPenalty int `envconfig:"REPUTATION_FALLACY_PENALTY" default:"-10"`
	ConcedeDirect  int `envconfig:"REPUTATION_ARGUMENT_CONCEDED" default:"50"`
	ConcedeRating  int `envconfig:"REPUTATION_CONCEDE_POINT_RATING" default:"20"`
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Auth           *AuthConfig
	AI             *AIConfig
	RateLimit      *RateLimitConfig
	Scoring        *ScoringConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
		Mode:           ModeDevelopment,
		RequestTimeout: 30 * time.Second,
	}
}

// DefaultRateLimitConfig mirrors the envconfig defaults, for callers that skip LoadConfig.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		ArgumentMax:    5,
		ArgumentWindow: time.Minute,
		DebateMax:      3,
		DebateWindow:   time.Hour,
		RatingMax:      20,
		RatingWindow:   time.Minute,
		AnalyzeMax:     10,
		AnalyzeWindow:  time.Minute,
		SteelmanMax:    3,
		SteelmanWindow: 5 * time.Minute,
		SweepSchedule:  "@every 5m",
	}
}

// DefaultScoringConfig mirrors the envconfig defaults.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		BlockBelow:     30,
		FallacyPenalty: -10,
		ConcedeDirect:  50,
		ConcedeRating:  20,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/engine
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/debate-forum/.env"),
	}
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	cfg := &Config{
		Server:    &ServerConfig{},
		Database:  &DatabaseConfig{},
		Auth:      &AuthConfig{},
		AI:        &AIConfig{},
		RateLimit: &RateLimitConfig{},
		Scoring:   &ScoringConfig{},
	}
	sections := []interface{}{cfg.Server, cfg.Database, cfg.Auth, cfg.AI, cfg.RateLimit, cfg.Scoring}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to process environment: %w", err)
		}
	}

	switch cfg.Server.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		return nil, fmt.Errorf("invalid APP_MODE %q: must be %q or %q", cfg.Server.Mode, ModeProduction, ModeDevelopment)
	}

	if err := cfg.Database.resolve(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.Server.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production mode")
		}
		cfg.Auth.JWTSecret = "debate_forum_development_secret"
	}

	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
		}
	case "openai":
		if cfg.AI.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
	case "none", "":
		cfg.AI.Provider = "none"
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AI.Provider)
	}
	if cfg.AI.Workers < 1 {
		cfg.AI.Workers = 1
	}

	cfg.AllowedOrigins = []string{"*"}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	return cfg, nil
}

// resolve builds the connection string for postgres, prioritizing DATABASE_URL.
func (d *DatabaseConfig) resolve() error {
	switch d.Type {
	case "memory":
		return nil
	case "postgres":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q: must be postgres or memory", d.Type)
	}

	if d.URI != "" {
		d.SSLMode = getSSLModeFromURI(d.URI)
		return nil
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	d.URI = u.String()
	return nil
}

// getSSLModeFromURI reads sslmode from a URL-form DSN, defaulting to "require".
func getSSLModeFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "require"
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		return mode
	}
	return "require"
}

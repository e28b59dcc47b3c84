package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"debate-forum/internal/analysis"
	"debate-forum/internal/config"
	"debate-forum/internal/database"
	"debate-forum/internal/engine"
	"debate-forum/internal/engine/actors"
	"debate-forum/internal/handlers"
	"debate-forum/internal/logging"
	"debate-forum/internal/middleware"
	"debate-forum/internal/ratelimit"
	"debate-forum/internal/reputation"
	"debate-forum/internal/utils"
	"debate-forum/internal/websocket"
)

// app is the fully wired service, minus the listener.
type app struct {
	system  *actor.ActorSystem
	hub     *websocket.Hub
	limiter *ratelimit.Limiter
	handler http.Handler
	logger  *zap.Logger
}

func newApp(cfg *config.Config, store database.DBAdapter, analyzer analysis.Analyzer, reg *prometheus.Registry, logger *zap.Logger) *app {
	metrics := utils.NewMetricsCollector(reg)
	hub := websocket.NewHub(logger)
	limiter := ratelimit.New()
	tokens := middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize actor system
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, engine.Options{
		Deps: actors.Deps{
			DB:         store,
			Limiter:    limiter,
			Limits:     cfg.RateLimit,
			Scoring:    cfg.Scoring,
			Rules:      reputation.NewRuleBook(cfg.Scoring),
			Metrics:    metrics,
			Publisher:  hub,
			Logger:     logger,
			Production: cfg.Server.IsProduction(),
		},
		Analyzer:        analyzer,
		Tokens:          tokens,
		AnalysisWorkers: cfg.AI.Workers,
		AnalysisTimeout: cfg.AI.Timeout,
	})

	server := handlers.NewServer(system, eng, hub, tokens, metrics, logger)
	server.RequestTimeout = cfg.Server.RequestTimeout
	server.AIProvider = cfg.AI.Provider
	server.AllowedOrigins = cfg.AllowedOrigins

	mux := server.Routes()
	if cfg.Server.MetricsEnabled && reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	h = middleware.Instrument(metrics, logger)(h)
	h = middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(h)

	return &app{system: system, hub: hub, limiter: limiter, handler: h, logger: logger}
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (database.DBAdapter, error) {
	if cfg.Type == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return database.NewMemoryStore(), nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	pg, err := database.NewPostgresDB(connectCtx, cfg.URI, logger.Named("postgres"))
	if err != nil {
		return nil, err
	}
	if err := pg.InitializeTables(connectCtx); err != nil {
		pg.Close(ctx)
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return pg, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	analyzer, err := analysis.NewFromConfig(ctx, cfg.AI, logger.Named("analysis"))
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a := newApp(cfg, store, analyzer, reg, logger)
	defer a.system.Shutdown()

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.RateLimit.SweepSchedule, func() {
		if n := a.limiter.Sweep(); n > 0 {
			logger.Debug("swept rate limit windows", zap.Int("removed", n))
		}
	}); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_SWEEP_SCHEDULE: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.hub.Run(gctx) })
	g.Go(func() error {
		sweeper.Start()
		<-gctx.Done()
		<-sweeper.Stop().Done()
		return nil
	})
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
			zap.String("db", cfg.Database.Type),
			zap.String("ai_provider", cfg.AI.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("engine stopped", zap.Error(err))
	}
}

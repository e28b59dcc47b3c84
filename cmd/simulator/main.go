package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"debate-forum/internal/logging"
	"debate-forum/simulator"
)

func newRootCmd() *cobra.Command {
	var (
		config simulator.SimConfig
		debug  bool
	)

	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Drive a running debate engine with simulated users",
		Long: `Registers users, opens debates, then posts arguments and ratings
against a running engine and reports throughput, latency and rejections.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(debug)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, config.SimulationTime)
			defer cancel()

			sim := simulator.NewSimulator(config, logger)
			if err := sim.Run(ctx); err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			m := sim.GetMetrics()
			logger.Info("simulation completed",
				zap.Int("users", m.TotalUsers),
				zap.Int("debates", m.TotalDebates),
				zap.Int("arguments", m.TotalArguments),
				zap.Int("ratings", m.TotalRatings),
				zap.Int("rate_limited", m.RateLimited),
				zap.Int("quality_blocked", m.QualityBlocked),
				zap.Duration("average_latency", m.AverageLatency),
				zap.Int("errors", m.ErrorCount))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&config.EngineURL, "engine-url", "http://localhost:8080", "base URL of the engine")
	f.IntVar(&config.NumUsers, "users", 10, "number of simulated users")
	f.IntVar(&config.NumDebates, "debates", 3, "number of debates to open")
	f.DurationVar(&config.SimulationTime, "duration", 10*time.Minute, "how long to run")
	f.Float64Var(&config.ArgumentFrequency, "argument-frequency", 60, "arguments per user per hour")
	f.Float64Var(&config.RatingFrequency, "rating-frequency", 120, "ratings per user per hour")
	f.Float64Var(&config.ZipfS, "zipf", 1.07, "Zipf exponent for debate popularity")
	f.IntVar(&config.Workers, "workers", 5, "concurrent request workers")
	f.BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if config.SimulationTime <= 0 {
			return fmt.Errorf("--duration must be positive")
		}
		if config.NumUsers < 2 {
			return fmt.Errorf("--users must be at least 2")
		}
		return nil
	}
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

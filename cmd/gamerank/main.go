// Package main is the entry point for the gamerank service. It builds the
// ranking engine over its stores, runs the score refresh job and serves the
// ops listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/gamerank/internal/config"
	"github.com/onnwee/gamerank/internal/engine"
	"github.com/onnwee/gamerank/internal/health"
	"github.com/onnwee/gamerank/internal/jobs"
	"github.com/onnwee/gamerank/internal/middleware"
	"github.com/onnwee/gamerank/internal/ops"
	"github.com/onnwee/gamerank/internal/store"
	"github.com/onnwee/gamerank/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("gamerank content ranking service")
		fmt.Println()
		fmt.Println("Usage: gamerank [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	if err := run(cfg, logger); err != nil {
		logger.Error("gamerank exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("gamerank stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "gamerank",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown failed", "error", err)
		}
	}()

	rankCfg, err := loadEngineConfig(cfg)
	if rankCfg == nil {
		return err
	}
	if err != nil {
		logger.Warn("calibration not applied, using defaults", "path", cfg.CalibrationPath, "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := engine.NewMetrics()
	if err := engineMetrics.Register(reg); err != nil {
		return fmt.Errorf("register engine metrics: %w", err)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(reg); err != nil {
		return fmt.Errorf("register job metrics: %w", err)
	}

	clk := clock.New()
	tracker := engine.NewDirtyTracker(clk)
	var (
		votes        engine.VoteStore
		memVotes     *store.InMemoryVoteStore
		redisChecker ops.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		votes = store.NewRedisVoteStore(client, store.RedisVoteStoreConfig{
			Window: rankCfg.RecentVoteWindow,
			Dirty:  tracker,
			Logger: logger,
		})
		redisChecker = health.NewRedisChecker(client, health.DefaultRedisTimeout)
		logger.Info("using redis vote store")
	} else {
		memVotes = store.NewInMemoryVoteStore(rankCfg.RecentVoteWindow, tracker)
		votes = memVotes
		logger.Info("using in-memory vote store")
	}

	targets := store.SeedTargets{
		Content:    store.NewInMemoryContentStore(),
		Engagement: store.NewInMemoryEngagementStore(),
		Reputation: store.NewInMemoryReputationStore(),
	}
	if memVotes != nil {
		targets.Votes = memVotes
	}
	if err := seedStores(cfg.SeedPath, targets, clk.Now(), rankCfg.ClockSkew, logger); err != nil {
		return err
	}

	eng, err := engine.New(rankCfg, engine.Options{
		Content:       targets.Content,
		Votes:         votes,
		Engagement:    targets.Engagement,
		Reputation:    targets.Reputation,
		Clock:         clk,
		Logger:        logger,
		Metrics:       engineMetrics,
		CacheTTL:      cfg.CacheTTL(),
		CacheCapacity: cfg.CacheCapacity,
		BatchSize:     cfg.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	refresh := engine.NewRefreshJob(engine.RefreshJobConfig{
		Interval:   cfg.RefreshInterval(),
		Logger:     logger,
		JobMetrics: jobMetrics,
	}, tracker, eng)

	handlers := ops.NewHandlers(ops.HandlersConfig{
		RedisChecker: redisChecker,
		Engine:       eng,
		Dirty:        tracker,
	})
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.OpsPort),
		Handler:      ops.NewMux(handlers, reg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting ops listener", "port", cfg.OpsPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		refresh.Start(gctx)
		<-gctx.Done()
		refresh.Stop()
		return nil
	})

	g.Go(func() error {
		reloadCalibration(gctx, cfg, eng, jobMetrics, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down ops listener...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ops listener shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// reloadCalibration re-reads the calibration file on SIGHUP and swaps the
// engine config. A failed reload keeps the active config.
func reloadCalibration(ctx context.Context, cfg *config.Config, eng *engine.Engine, metrics *jobs.Metrics, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			err := metrics.Run(jobs.JobTypeCalibrationReload, "reload_error", func() error {
				return applyCalibration(cfg, eng)
			})
			if err != nil {
				logger.Error("calibration reload failed, keeping active config",
					"path", cfg.CalibrationPath,
					"error", err)
				continue
			}
			logger.Info("calibration reloaded",
				"path", cfg.CalibrationPath,
				"generation", eng.Metrics().ConfigGeneration)
		}
	}
}

func applyCalibration(cfg *config.Config, eng *engine.Engine) error {
	rankCfg, err := loadEngineConfig(cfg)
	if err != nil {
		return err
	}
	return eng.UpdateConfig(rankCfg)
}

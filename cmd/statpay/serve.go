package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/warp/statpay/api"
	"github.com/warp/statpay/store/redis"
	"github.com/warp/statpay/store/sqlite"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the holiday payroll scheduler",
		Long: `Starts the HTTP API over a SQLite store. Rule sets from the configured
rule table are published on startup when not already stored. On SIGINT or
SIGTERM the server stops accepting connections and waits up to 30s for
active requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.Int("port", 8080, "HTTP server port")
	f.String("db", "statpay.db", `SQLite database path (":memory:" for in-memory)`)
	f.Int("workers", 8, "payroll run parallelism")
	f.Bool("redis", false, "enable the Redis result cache")
	f.String("redis-addr", "localhost:6379", "Redis address")
	f.Bool("scheduler", true, "run the holiday payroll scheduler")
	a.bind(f, "port", "port")
	a.bind(f, "db", "db")
	a.bind(f, "workers", "workers")
	a.bind(f, "redis.enabled", "redis")
	a.bind(f, "redis.addr", "redis-addr")
	a.bind(f, "scheduler.enabled", "scheduler")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)
	handler.Workers = cfg.Workers

	// Seed and load the rule table
	rt, source, err := a.ruleTable("")
	if err != nil {
		return fmt.Errorf("load rule table: %w", err)
	}
	published, err := rt.Seed(ctx, handler.Registry)
	if err != nil {
		return err
	}
	log.Info().Str("source", source).Int("published", published).Msg("rule table seeded")
	if err := handler.LoadRules(ctx); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	if cfg.Redis.Enabled {
		cache := redis.New(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := cache.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, result cache disabled")
			_ = cache.Close()
		} else {
			handler.Cache = cache
			defer cache.Close()
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("result cache enabled")
		}
	}

	scheduler := api.NewHolidayPayScheduler(handler)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.SettleDays = cfg.Scheduler.SettleDays
	scheduler.HorizonDays = cfg.Scheduler.HorizonDays
	handler.Scheduler = scheduler
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("db", cfg.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

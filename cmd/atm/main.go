package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terminal-bank/config"
	"terminal-bank/internal/adapter/cli"
	"terminal-bank/internal/adapter/storage/memory"
	pgStorage "terminal-bank/internal/adapter/storage/postgres"
	redisStorage "terminal-bank/internal/adapter/storage/redis"
	"terminal-bank/internal/core/ports"
	"terminal-bank/internal/service"
	"terminal-bank/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (yaml, json or toml)")
	operator := pflag.Bool("operator", false, "enable account administration commands")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *operator {
		cfg.Console.Operator = true
	}

	// Initialize logger
	log, closer, err := logger.New(cfg.Log.Level, cfg.Log.Pretty, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("ATM stopped with error")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("store", cfg.Store.Driver).Bool("redis", cfg.Redis.Enabled).Msg("Starting terminal bank")

	var (
		accountRepo ports.AccountRepository
		auditRepo   ports.AuditRepository
		checkers    []ports.HealthChecker
	)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		if cfg.Database.Migrate {
			if err := pgStorage.Migrate(ctx, pool, log); err != nil {
				return fmt.Errorf("migrating schema: %w", err)
			}
		}
		accountRepo = pgStorage.NewAccountRepo(pool)
		auditRepo = pgStorage.NewAuditRepo(pool)
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
	default:
		accountRepo = memory.NewAccountRepo()
		auditRepo = memory.NewAuditRepo()
	}

	// Optional login limiter
	var limiter ports.LoginLimiter
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		limiter = redisStorage.NewLoginLimiter(rdb, cfg.Security.LoginMaxFailures, cfg.Security.LoginLockWindow)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	if err := checkHealth(ctx, checkers, log); err != nil {
		return err
	}

	// Initialize services
	hashSvc := service.NewArgon2HashServiceWithParams(service.Argon2Params{
		Time:    cfg.Security.Argon2Time,
		Memory:  cfg.Security.Argon2MemoryKiB,
		Threads: cfg.Security.Argon2Threads,
	})
	auditSvc := service.NewAuditService(auditRepo, log)
	ledger := service.NewLedgerService(
		accountRepo,
		service.NewIdentifierGenerator(),
		hashSvc,
		auditSvc,
		service.LedgerOptions{
			MaxCASRetries:         cfg.Ledger.MaxCASRetries,
			MaxGenerationAttempts: cfg.Ledger.MaxGenerationAttempts,
			ReversalTimeout:       cfg.Ledger.ReversalTimeout,
		},
		log,
	)
	sessions := service.NewSessionService(accountRepo, ledger, hashSvc, limiter, auditSvc, log)

	console := cli.NewConsole(sessions, ledger, os.Stdin, os.Stdout, log, cli.ConsoleOptions{
		Operator: cfg.Console.Operator,
	})
	err := console.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("Interrupted, shutting down")
		return nil
	}
	return err
}

func checkHealth(ctx context.Context, checkers []ports.HealthChecker, log zerolog.Logger) error {
	for _, hc := range checkers {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := hc.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s health check: %w", hc.Name(), err)
		}
		log.Debug().Str("dependency", hc.Name()).Msg("healthy")
	}
	return nil
}

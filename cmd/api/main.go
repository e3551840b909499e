package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/transfer-service/internal/api/http"
	"github.com/spec-kit/transfer-service/internal/api/http/handlers"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/config"
	"github.com/spec-kit/transfer-service/internal/directory"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/observability"
	"github.com/spec-kit/transfer-service/internal/persistence"
	"github.com/spec-kit/transfer-service/internal/repository"
	"github.com/spec-kit/transfer-service/internal/repository/memory"
	"github.com/spec-kit/transfer-service/internal/service"
	"github.com/spec-kit/transfer-service/internal/worker"
)

const defaultSeedFile = "assets/directory.yaml"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	location, err := cfg.Workflow.Location()
	if err != nil {
		logger.Fatal("invalid reference timezone", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.MigrationsDir, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		transferRepo repository.TransferRepository
		handoverRepo repository.HandoverRepository
		transactor   service.Transactor
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		transferRepo = repository.NewTransferRepository(pool)
		handoverRepo = repository.NewHandoverRepository(pool)
		transactor = persistence.NewTransactionManager(pool)
	} else {
		store := memory.NewStore()
		transferRepo = store.Transfers()
		handoverRepo = store.Handover()
	}

	dir, err := buildDirectory(cfg, pg, redis, logger)
	if err != nil {
		logger.Fatal("failed to load reference directory", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	transferService := service.NewTransferService(service.TransferDependencies{
		TransferRepo: transferRepo,
		Directory:    dir,
		Transactor:   transactor,
		Dispatcher:   dispatcher,
		Location:     location,
		Logger:       logger,
	})
	handoverService := service.NewHandoverService(service.HandoverDependencies{
		TransferRepo: transferRepo,
		HandoverRepo: handoverRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		EnforceGate:  cfg.Workflow.HandoverGateEnforced,
	})

	scheduler := worker.NewCompletionScheduler(transferService, cfg.Workflow.CompletionInterval(), cfg.Workflow.CompletionBatchSize, logger)
	go scheduler.Run(ctx)

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Ops:            handlers.NewOpsHandler(metrics, scheduler),
		Transfers:      handlers.NewTransfersHandler(transferService),
		Handover:       handlers.NewHandoverHandler(handoverService),
		Directory:      handlers.NewDirectoryHandler(dir),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// buildDirectory picks the reference source: an explicit seed file, then
// postgres, then the bundled seed. Redis caching wraps whichever is chosen.
func buildDirectory(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) (directory.Directory, error) {
	var base directory.Directory
	switch {
	case cfg.Directory.SeedFile != "":
		static, err := directory.LoadStatic(cfg.Directory.SeedFile)
		if err != nil {
			return nil, err
		}
		base = static
	case pg.Enabled():
		base = repository.NewReferenceRepository(pg.PoolHandle())
	default:
		static, err := directory.LoadStatic(defaultSeedFile)
		if err != nil {
			return nil, err
		}
		base = static
	}
	return directory.NewCached(base, redis.Client, cfg.Directory.CacheTTL(), logger), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

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
	"golang.org/x/time/rate"

	httptransport "github.com/spec-kit/request-service/internal/api/http"
	"github.com/spec-kit/request-service/internal/api/http/handlers"
	"github.com/spec-kit/request-service/internal/auth"
	"github.com/spec-kit/request-service/internal/config"
	"github.com/spec-kit/request-service/internal/events"
	"github.com/spec-kit/request-service/internal/observability"
	"github.com/spec-kit/request-service/internal/persistence"
	"github.com/spec-kit/request-service/internal/repository"
	"github.com/spec-kit/request-service/internal/service"
	"github.com/spec-kit/request-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repositories backing the services.
type stores struct {
	users     repository.UserRepository
	requests  repository.RequestRepository
	history   repository.RequestHistoryRepository
	blocklist repository.TokenBlocklist
}

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Configured() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildStores(pg, redis)

	dispatcher := events.NewInMemoryDispatcher(logger)
	var sink *events.KafkaSink
	var sinkHandler events.EventHandler
	if len(cfg.Kafka.Brokers) > 0 {
		sink = events.NewKafkaSink(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger))
		sinkHandler = sink.Handle
		logger.Info("publishing lifecycle events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("kafka writer close", zap.Error(err))
		}
	}()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, sinkHandler, logger, cfg.Notification))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  repos.users,
		Blocklist: repos.blocklist,
		Logger:    logger,
	})
	userService := service.NewUserService(repos.users, logger)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: repos.requests,
		UserRepo:    repos.users,
		HistoryRepo: repos.history,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.users, repos.blocklist, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(cfg.IsDevelopment()),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
		Development: cfg.IsDevelopment(),
	})

	deps := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg.Configured() {
		deps["postgres"] = pg
	}
	if redis != nil {
		deps["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:           handlers.NewAuthHandler(authService, userService),
		Users:          handlers.NewUsersHandler(userService),
		Requests:       handlers.NewRequestsHandler(requestService),
		AuthMiddleware: authMiddleware,
		AuthLimiter:    httptransport.NewIPRateLimiter(rate.Limit(cfg.RateLimit.AuthPerSecond), cfg.RateLimit.AuthBurst),
		StaticDir:      cfg.App.StaticDir,
	})

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

// buildStores picks postgres and redis when configured and the in-memory store otherwise.
func buildStores(pg *persistence.Postgres, redis *persistence.Redis) stores {
	var out stores
	var memory *repository.MemoryStore
	if pg.Configured() {
		pool := pg.PoolHandle()
		out.users = repository.NewUserRepository(pool)
		out.requests = repository.NewRequestRepository(pool)
		out.history = repository.NewRequestHistoryRepository(pool)
	} else {
		memory = repository.NewMemoryStore()
		out.users = memory.Users()
		out.requests = memory.Requests()
		out.history = memory.History()
	}

	switch {
	case redis != nil:
		out.blocklist = repository.NewRedisTokenBlocklist(redis.Client)
	case memory != nil:
		out.blocklist = memory.Blocklist()
	default:
		out.blocklist = repository.NewMemoryStore().Blocklist()
	}
	return out
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

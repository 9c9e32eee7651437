package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// stores groups the repositories the services need, backed either by
// Postgres or by the in-memory store.
type stores struct {
	users       repository.UserRepository
	clients     repository.ClientRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	tx          repository.TxManager
}

func newStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		mem := memstore.New()
		return stores{
			users:       mem.Users(),
			clients:     mem.Clients(),
			technicians: mem.Technicians(),
			categories:  mem.Categories(),
			tickets:     mem.Tickets(),
			history:     mem.History(),
			tx:          mem,
		}
	}
	pool := pg.Pool
	return stores{
		users:       repository.NewUserRepository(pool),
		clients:     repository.NewClientRepository(pool),
		technicians: repository.NewTechnicianRepository(pool),
		categories:  repository.NewCategoryRepository(pool),
		tickets:     repository.NewTicketRepository(pool),
		history:     repository.NewTicketHistoryRepository(pool),
		tx:          repository.NewTxManager(pool),
	}
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
	if !pg.Enabled() {
		logger.Warn("POSTGRES_DSN not set; using in-memory store")
	}

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, persistence.MigrateUp, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()
	notifier := worker.NewNotificationWorker(dispatcher, cfg.Notification.QueueSize, logger)
	notifier.Start()

	st := newStores(pg)
	policy := authz.DefaultPolicy
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	directory := service.NewDirectoryService(service.DirectoryDependencies{
		CategoryRepo:   st.categories,
		ClientRepo:     st.clients,
		TechnicianRepo: st.technicians,
		UserRepo:       st.users,
		Cache:          cache.New(redis.Client, cfg.Cache.KeyPrefix, cfg.Cache.TTL(), logger),
		Policy:         policy,
		Logger:         logger,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     st.tickets,
		HistoryRepo:    st.history,
		TechnicianLock: st.technicians,
		Tx:             st.tx,
		Directory:      directory,
		Policy:         policy,
		Dispatcher:     notifier,
		Metrics:        metrics,
		Logger:         logger,
	})
	users := service.NewUserService(service.UserDependencies{
		UserRepo:   st.users,
		Policy:     policy,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(st.users, tokens, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
		},
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService, users),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Directory:      handlers.NewDirectoryHandler(directory),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		LoginLimiter:   auth.NewIPRateLimiter(cfg.RateLimit.LoginPerSecond, cfg.RateLimit.LoginBurst),
		Gatherer:       registry,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notifier.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

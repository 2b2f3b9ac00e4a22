package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/api/gqlapi"
	httptransport "github.com/spec-kit/feed-service/internal/api/http"
	"github.com/spec-kit/feed-service/internal/api/http/handlers"
	"github.com/spec-kit/feed-service/internal/auth"
	"github.com/spec-kit/feed-service/internal/config"
	"github.com/spec-kit/feed-service/internal/events"
	"github.com/spec-kit/feed-service/internal/observability"
	"github.com/spec-kit/feed-service/internal/persistence"
	"github.com/spec-kit/feed-service/internal/realtime"
	"github.com/spec-kit/feed-service/internal/repository"
	"github.com/spec-kit/feed-service/internal/service"
	"github.com/spec-kit/feed-service/internal/storage"
	"github.com/spec-kit/feed-service/internal/validation"
	"github.com/spec-kit/feed-service/internal/worker"
)

// stores groups the repositories selected by STORE_DRIVER.
type stores struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	deps    []handlers.Dependency
	closers []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		for _, closeFn := range st.closers {
			closeFn()
		}
	}()

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open image store", zap.String("storage", cfg.Images.Storage), zap.Error(err))
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	cleaner := worker.NewImageCleaner(images, cfg.Images.CleanupQueueSize, logger, metrics)
	cleaner.Start()

	dispatcher := events.NewInMemoryDispatcher(logger)
	validator := validation.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     st.users,
		TokenManager: tokens,
		Validator:    validator,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	postService := service.NewPostService(service.PostDependencies{
		PostRepo:   st.posts,
		UserRepo:   st.users,
		Cleaner:    cleaner,
		Dispatcher: dispatcher,
		Validator:  validator,
		Logger:     logger,
	})
	userService := service.NewUserService(st.users)

	hub := realtime.NewHub(logger, metrics)
	var notifier *realtime.Notifier
	var publisher service.Publisher = hub
	if redis.Available() {
		notifier = realtime.NewNotifier(redis.Client, cfg.Realtime.Channel, logger)
		publisher = notifier
	}
	notificationService := service.NewNotificationService(dispatcher, publisher, logger, metrics)
	if err := worker.StartNotificationWorker(ctx, notificationService, hub, notifier, logger); err != nil {
		logger.Fatal("failed to start notification worker", zap.Error(err))
	}

	gqlHandler, err := gqlapi.NewHandler(gqlapi.NewResolver(authService, postService, userService), logger)
	if err != nil {
		logger.Fatal("failed to build graphql schema", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimit(),
		ErrorHandler: httptransport.ErrorHandler(logger),
	})

	prom := fiberprometheus.New(cfg.App.Name)
	prom.RegisterAt(app, "/metrics")
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:    cfg.App.RequestTimeout(),
		Prometheus: prom,
	})

	deps := append(st.deps, handlers.Dependency{Name: "images", Pinger: images})
	if redis.Available() {
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: redis})
	}

	routes := httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps...),
		Auth:     handlers.NewAuthHandler(authService),
		Feed:     handlers.NewFeedHandler(postService, userService, images, cleaner),
		Images:   handlers.NewImageHandler(images),
		Realtime: handlers.NewRealtimeHandler(hub, logger),
		GraphQL:  gqlHandler.Serve,
		Guard:    auth.NewGuard(tokens),
	}
	if disk, ok := images.(*storage.DiskStore); ok {
		routes.StaticImagesDir = disk.Dir()
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	runShutdown(shutdownCtx, logger, shutdownSteps(app, hub, cleaner))
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		m, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureUserIndexes(ctx, m.DB); err != nil {
			m.Close(context.Background())
			return nil, err
		}
		return &stores{
			users: repository.NewMongoUserRepository(m.DB),
			posts: repository.NewMongoPostRepository(m.DB),
			deps:  []handlers.Dependency{{Name: "mongo", Pinger: m}},
			closers: []func(){func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				m.Close(closeCtx)
			}},
		}, nil

	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		return &stores{
			users:   repository.NewUserRepository(pool),
			posts:   repository.NewPostRepository(pool),
			deps:    []handlers.Dependency{{Name: "postgres", Pinger: pg}},
			closers: []func(){pg.Close},
		}, nil

	default:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{users: mem.Users(), posts: mem.Posts()}, nil
	}
}

func openImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.Images.Storage == config.ImageStorageMinio {
		store, err := storage.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewDiskStore(cfg.Images.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"settingsapi/docs"
	"settingsapi/internal/config"
	"settingsapi/internal/database"
	"settingsapi/internal/database/migration"
	handlers "settingsapi/internal/http/handler"
	"settingsapi/internal/http/middleware"
	"settingsapi/internal/logger"
	"settingsapi/internal/otel"
	"settingsapi/internal/repository"
	"settingsapi/internal/repository/cache"
	mongorepo "settingsapi/internal/repository/mongo"
	"settingsapi/internal/repository/postgres"
	"settingsapi/internal/service"
	"settingsapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title						User Settings API
// @version					1.0
// @description				Per-user dashboard settings with document and profile picture storage.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	lg := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, lg)
	if err != nil {
		lg.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			lg.WithError(err).Warn("tracing_shutdown_failed")
		}
	}()

	repo, storeCheck, closeStore, err := openSettingsStore(ctx, cfg, lg)
	if err != nil {
		lg.WithError(err).Fatal("failed to open settings store")
	}
	defer closeStore()

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		repo = cache.NewSettingsCache(repo, rdb, time.Duration(cfg.Redis.TTLSec)*time.Second, lg)
		lg.WithField("addr", cfg.Redis.Addr).Info("settings_cache_enabled")
	}

	objStore, err := openObjectStorage(ctx, cfg)
	if err != nil {
		lg.WithError(err).Fatal("failed to initialize object storage")
	}
	if c, ok := objStore.(io.Closer); ok {
		defer c.Close()
	}

	settingsSvc := service.NewSettingsService(repo, objStore, lg)
	docSvc := service.NewDocumentService(repo, objStore, cfg.Upload, lg)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg, "/health", "/healthz")
	if err != nil {
		lg.WithError(err).Fatal("failed to register http metrics")
	}

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
	})))
	app.Use(middleware.Logger(lg))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, cfg.Auth.JWTSecret, handlers.Services{
		Settings:  settingsSvc,
		Documents: docSvc,
	}, storeCheck, handlers.Check{Name: "object_storage", Ping: objStore.Ping})

	errCh := make(chan error, 1)
	go func() {
		lg.WithField("port", cfg.Port).Info("server_starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lg.WithError(err).Error("server_stopped")
		}
	case <-ctx.Done():
		lg.Info("server_shutting_down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			lg.WithError(err).Error("server_shutdown_failed")
		}
	}
}

// openSettingsStore connects the configured settings backend and prepares its schema.
func openSettingsStore(ctx context.Context, cfg *config.AppConfig, lg *log.Logger) (repository.SettingsRepository, handlers.Check, func(), error) {
	switch cfg.SettingsStore {
	case config.StoreMongo:
		client, coll, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			return nil, handlers.Check{}, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		repo := mongorepo.NewSettingsMongo(coll)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, handlers.Check{}, nil, err
		}
		check := handlers.Check{Name: "settings_store", Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}}
		return repo, check, closeFn, nil

	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, handlers.Check{}, nil, err
		}
		closeFn := func() { _ = db.Close() }

		if err := migration.EnsureMigrated(ctx, db, lg, cfg.Database.Host); err != nil {
			closeFn()
			return nil, handlers.Check{}, nil, err
		}
		return postgres.NewSettingsPostgres(db), sqlCheck(db), closeFn, nil
	}
	return nil, handlers.Check{}, nil, errors.New("unsupported settings store " + cfg.SettingsStore)
}

func sqlCheck(db *sql.DB) handlers.Check {
	return handlers.Check{Name: "settings_store", Ping: db.PingContext}
}

func openObjectStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if cfg.StorageDriver == config.StorageGCS {
		return storage.NewGCS(ctx, cfg.GCS)
	}
	return storage.NewMinIO(cfg.MinIO)
}

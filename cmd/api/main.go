package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/rusingacademy/progress-service/docs"
	"github.com/rusingacademy/progress-service/internal/auth"
	"github.com/rusingacademy/progress-service/internal/config"
	"github.com/rusingacademy/progress-service/internal/handlers"
	"github.com/rusingacademy/progress-service/internal/logger"
	"github.com/rusingacademy/progress-service/internal/middleware"
	"github.com/rusingacademy/progress-service/internal/realtime"
	"github.com/rusingacademy/progress-service/internal/repositories"
	"github.com/rusingacademy/progress-service/internal/services"
	"github.com/rusingacademy/progress-service/internal/validation"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// A full batch of 50 updates fits comfortably
const maxRequestBody = 1 << 20

// @title RusingAcademy Progress API
// @version 1.0
// @description API for syncing lesson progress, course aggregates and learning stats, with live progress streams
// @termsOfService http://swagger.io/terms/

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Progress Service API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := realtime.NewHub(logger.Logger, cfg.Realtime.ClientBuffer, cfg.Realtime.HeartbeatInterval)
	publisher, closeBus, err := setupEventBus(ctx, cfg, hub)
	if err != nil {
		logger.Logger.Fatal("Failed to set up event bus", zap.Error(err))
	}
	defer closeBus()

	tokenValidator := auth.NewTokenValidator(cfg.JWT.Secret)

	progressService := services.NewProgressSyncService(
		repositories.NewLessonProgressRepository(db),
		repositories.NewCourseStructureRepository(db),
		realtime.NewBroadcaster(publisher),
		logger.Logger,
		services.ProgressSyncOptions{
			MaxConflictRetries: cfg.Sync.MaxConflictRetries,
			BroadcastTimeout:   cfg.Sync.BroadcastTimeout,
		},
	)

	r := newRouter(cfg, routes{
		health:   handlers.NewHealthHandler(db, logger.Logger),
		progress: handlers.NewProgressHandler(progressService, validation.New(), cfg.Sync.MaxBatchSize, logger.Logger),
		stream:   handlers.NewStreamHandler(hub, logger.Logger),
		auth:     middleware.AuthMiddleware(tokenValidator),
		admin:    middleware.RoleMiddleware(tokenValidator, cfg.AdminRole),
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigCtx, cancelSig := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelSig()
	<-sigCtx.Done()

	logger.Logger.Info("Shutting down server...")

	// Open event streams only end when their request context does
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// setupEventBus returns where progress events are published. Without Redis
// the local hub is used directly; with Redis every instance publishes to the
// channel and forwards what it receives into its own hub.
func setupEventBus(ctx context.Context, cfg *config.Config, hub *realtime.Hub) (realtime.Publisher, func(), error) {
	if !cfg.Redis.Enabled {
		logger.Logger.Info("Redis disabled, progress events stay on this instance")
		return hub, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	bus := realtime.NewRedisBus(rdb, cfg.Redis.Channel, logger.Logger)
	if err := bus.StartForwarder(ctx, func(msg realtime.Message) { hub.Broadcast(msg) }); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to start Redis forwarder: %w", err)
	}

	logger.Logger.Info("Progress events fan out through Redis", zap.String("channel", cfg.Redis.Channel))
	return bus, func() { rdb.Close() }, nil
}

type routes struct {
	health   *handlers.HealthHandler
	progress *handlers.ProgressHandler
	stream   *handlers.StreamHandler
	auth     func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
}

// newRouter mounts the API under /api/v1 behind the shared middleware chain
func newRouter(cfg *config.Config, rt routes) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(maxRequestBody))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		rt.health.RegisterRoutes(r)
		rt.progress.RegisterRoutes(r, rt.auth)
		rt.stream.RegisterRoutes(r, rt.auth, rt.admin)
	})

	return r
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations applies pending migrations, tracked in a table of their own
// because the schema is shared with other services
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "progress_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(), "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Logger.Info("Migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// migrationsDir finds the migrations directory from the repository root or cmd/api
func migrationsDir() string {
	for _, dir := range []string{"migrations", "../../migrations"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "migrations"
}

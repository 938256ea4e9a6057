package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
	activityPostgres "github.com/opsboard/backend/internal/activity/postgres"
	"github.com/opsboard/backend/internal/auth"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/backup"
	"github.com/opsboard/backend/internal/core/events"
	"github.com/opsboard/backend/internal/employee"
	employeePostgres "github.com/opsboard/backend/internal/employee/postgres"
	"github.com/opsboard/backend/internal/livefeed"
	"github.com/opsboard/backend/internal/transport/rest"
	"github.com/opsboard/backend/internal/transport/swagger"
	"github.com/opsboard/backend/internal/user"
	userPostgres "github.com/opsboard/backend/internal/user/postgres"
	"github.com/opsboard/backend/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Router    *chi.Mux
	Logger    *slog.Logger
	Scheduler *backup.Scheduler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if deps.Scheduler != nil {
		deps.Scheduler.Start()
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		if deps.Scheduler != nil {
			deps.Scheduler.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Logging.Level)
	lg := logger.LoggerWrapper()

	// fail fast on a broken OpenAPI document
	if _, err := swagger.LoadSpec(context.Background(), "./api/openapi.yml"); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	bus := events.NewEventBus(lg)

	feed := livefeed.NewFeed(livefeed.DefaultCapacity, lg)
	feed.RegisterEventHandlers(bus)

	userRepo := userPostgres.NewUserRepository(gormDB)
	employeeRepo := employeePostgres.NewEmployeeRepository(gormDB)
	activityRepo := activityPostgres.NewActivityRepository(gormDB)

	activityService := activity.NewService(activityRepo, bus, lg)
	userService := user.NewService(userRepo, activityService, bus, config.Security.BCryptCost, lg)
	employeeService := employee.NewService(employeeRepo, activityService, bus, lg)

	tokens := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	tokens.AccessTokenTTL = config.Security.AccessTokenDuration
	tokens.RefreshTokenTTL = config.Security.RefreshTokenDuration
	authService := auth.NewService(userRepo, tokens, lg)

	backupService := backup.NewService(userRepo, employeeRepo, activityService, bus, backup.SystemClock, lg)

	var scheduler *backup.Scheduler
	if config.Backup.Enabled {
		sink := backup.NewFileSink("./backups", backup.SystemClock)
		scheduler, err = backup.NewScheduler(config.Backup.IntervalMinutes, func() error {
			return backupService.RunAuto(sink)
		}, backup.SystemClock, lg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure backup scheduler: %w", err)
		}
	}

	gate := authz.NewGate(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authService, gate, rest.Handlers{
		Auth:     auth.NewHandler(authService),
		User:     user.NewHandler(userService),
		Employee: employee.NewHandler(employeeService),
		Activity: activity.NewHandler(activityService),
		Backup:   backup.NewHandler(backupService, scheduler),
		Feed:     livefeed.NewHandler(feed),
	}, config.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config:    config,
		DB:        db,
		Gorm:      gormDB,
		Router:    router,
		Logger:    lg,
		Scheduler: scheduler,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

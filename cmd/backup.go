package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opsboard/backend/internal/activity"
	activityPostgres "github.com/opsboard/backend/internal/activity/postgres"
	"github.com/opsboard/backend/internal/backup"
	"github.com/opsboard/backend/internal/core/events"
	employeePostgres "github.com/opsboard/backend/internal/employee/postgres"
	userPostgres "github.com/opsboard/backend/internal/user/postgres"
	"github.com/opsboard/backend/pkg/logger"
)

var (
	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Run the auto-snapshot scheduler standalone",
		Long:  `Run the periodic backup scheduler without the HTTP server, writing snapshots to the backup directory.`,
		Run: func(cmd *cobra.Command, args []string) {
			startBackupWorker()
		},
	}
	backupDir string
)

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "./backups", "directory to write snapshots to")
}

func startBackupWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), cfg.Logging.Level)
	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init orm: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(lg)
	activityService := activity.NewService(activityPostgres.NewActivityRepository(gormDB), bus, lg)
	backupService := backup.NewService(
		userPostgres.NewUserRepository(gormDB),
		employeePostgres.NewEmployeeRepository(gormDB),
		activityService,
		bus,
		backup.SystemClock,
		lg,
	)

	sink := backup.NewFileSink(backupDir, backup.SystemClock)
	scheduler, err := backup.NewScheduler(cfg.Backup.IntervalMinutes, func() error {
		return backupService.RunAuto(sink)
	}, backup.SystemClock, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure scheduler: %v\n", err)
		os.Exit(1)
	}

	scheduler.Start()
	lg.Info("backup worker is running. Press Ctrl+C to stop.",
		"interval_minutes", cfg.Backup.IntervalMinutes, "dir", backupDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down backup worker", "signal", sig)
	scheduler.Stop()
	if err := sqlDB.Close(); err != nil {
		lg.Error("database close error", "error", err)
	}
	lg.Info("backup worker shutdown complete")
}

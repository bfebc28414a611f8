// Package app builds the service graph from configuration. The HTTP server
// and the admin CLI share it.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"simplib/pkg/backup"
	"simplib/pkg/config"
	"simplib/pkg/database"
	"simplib/pkg/lending"
	"simplib/pkg/logging"
	"simplib/pkg/stats"
	"simplib/pkg/store"
)

// SnapshotPrefix is the object key prefix for off-site snapshots.
const SnapshotPrefix = "snapshots"

type App struct {
	Config     *config.Config
	Store      store.Store
	Controller *lending.Controller
	Log        logging.Logger

	db          *gorm.DB
	backupFiles []string
}

func New(cfg *config.Config, log logging.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	switch cfg.StoreDriver {
	case "csv":
		s, err := store.NewCSVStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		a.Store = s
		a.backupFiles = s.Files()
	case "sqlite":
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.Store = store.NewGormStore(db)
		a.backupFiles = []string{cfg.SQLitePath}
	case "postgres":
		db, err := database.OpenPostgres(cfg.PostgresDSN(), 10)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.Store = store.NewGormStore(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	a.Controller = lending.NewController(a.Store, log)
	return a, nil
}

func (a *App) Thresholds() stats.Thresholds {
	return stats.Thresholds{
		MonthlyMinLoans:  a.Config.MonthlyMinLoans,
		CategoryMinBooks: a.Config.CategoryMinBooks,
		UnknownCategory:  a.Config.UnknownCategory,
	}
}

// Health pings the database when there is one.
func (a *App) Health() error {
	if a.db == nil {
		return nil
	}
	return database.Ping(a.db)
}

// Rotator builds the backup job, or returns nil when the store has no local
// files to snapshot (postgres keeps its own backups).
func (a *App) Rotator(ctx context.Context) (*backup.Rotator, error) {
	if len(a.backupFiles) == 0 {
		return nil, nil
	}

	var opts []backup.Option
	if a.Config.S3Bucket != "" {
		client, err := backup.NewS3Client(ctx, backup.S3Config{
			Region:   a.Config.S3Region,
			Endpoint: a.Config.S3Endpoint,
			User:     a.Config.S3User,
			Password: a.Config.S3Password,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, backup.WithSink(backup.NewS3Sink(client, a.Config.S3Bucket, SnapshotPrefix, a.Log)))
	}

	return backup.NewRotator(a.backupFiles, a.Config.BackupDir, a.Config.BackupKeep, a.Config.BackupInterval, a.Log, opts...), nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lsys/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	DSN            string
	MaxConns       int
	AcquireTimeout time.Duration
	Log            zerolog.Logger
}

// ConnectDB opens the pool and checks that the database answers within
// AcquireTimeout. postgres:// URLs and key=value strings go to postgres,
// anything else is treated as a sqlite path.
func ConnectDB(ctx context.Context, opts Options) (*gorm.DB, error) {
	dial, err := dialector(opts.DSN)
	if err != nil {
		return nil, err
	}

	log := opts.Log
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.New(&log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dial.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	if isMemorySQLite(opts.DSN) {
		// every connection would get its own empty database
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)

	timeout := opts.AcquireTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect %s: %w", dial.Name(), err)
	}

	log.Info().Str("driver", dial.Name()).Int("max_conns", maxConns).Msg("database connected")
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates the schema when absent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Author{},
		&models.Book{},
		&models.Wrote{},
		&models.BorrowLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// catalogue listing orders by name
	if err := db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_name ON %s (name)`,
		models.BookTable, models.BookTable,
	)).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func dialector(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, errors.New("empty database url")
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn), nil
	default:
		return sqlite.Open(sqliteDSN(dsn)), nil
	}
}

// sqliteDSN strips the scheme and adds the busy timeout and foreign key
// pragmas understood by mattn/go-sqlite3.
func sqliteDSN(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "sqlite3://"):
		dsn = strings.TrimPrefix(dsn, "sqlite3://")
	case strings.HasPrefix(dsn, "sqlite:"):
		dsn = strings.TrimPrefix(dsn, "sqlite:")
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000&_foreign_keys=1"
}

func isMemorySQLite(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

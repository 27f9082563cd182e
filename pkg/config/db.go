package config

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a gorm connection for the sqlite or postgres driver.
func NewDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Name,
			cfg.Database.SSLMode,
			int(cfg.Database.Timeout.Seconds()),
		)
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.Database.Path + "?_busy_timeout=5000&_journal_mode=WAL")
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.Database.Driver)
	}

	gormConfig := &gorm.Config{}
	if cfg.Server.Env == "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	}

	retries := cfg.Database.Retries
	if retries < 1 {
		retries = 1
	}
	delay := 2 * time.Second

	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}
		if i < retries-1 {
			time.Sleep(delay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite {
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY on appends.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	return db, nil
}

// NewBadger opens the embedded key-value store at the configured path.
func NewBadger(cfg *Config) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(cfg.Database.Path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Database.Path, err)
	}
	return db, nil
}

// TestConnection checks if the database connection is working
func TestConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

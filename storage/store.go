// Package storage is the durable key-value store that session state survives reloads in.
package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Driver identifiers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Store is a string key-value store. Get reports found=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

type Config struct {
	Driver string
	SQLite *SQLiteConfig
	Redis  *RedisConfig
}

type SQLiteConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Dependencies carries handles owned by the caller. A provided SQLiteDB is used instead of opening SQLite.DSN.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New creates a store for the configured driver.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		if deps.SQLiteDB != nil {
			return NewSQLite(deps.SQLiteDB)
		}
		if cfg.SQLite == nil || cfg.SQLite.DSN == "" {
			return nil, fmt.Errorf("storage: sqlite driver requires a DSN or database handle")
		}
		return OpenSQLite(cfg.SQLite.DSN)
	case DriverRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("storage: unsupported driver: %s", driver)
	}
}

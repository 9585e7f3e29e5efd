package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PersistedEntry is one row of the sqlite driver's table.
type PersistedEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (PersistedEntry) TableName() string {
	return "persisted_entries"
}

type sqliteStore struct {
	db    *gorm.DB
	owned bool
}

// OpenSQLite opens the database at dsn and migrates the entries table.
func OpenSQLite(dsn string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	s, err := NewSQLite(db)
	if err != nil {
		return nil, err
	}
	s.(*sqliteStore).owned = true
	return s, nil
}

// NewSQLite uses a caller-owned gorm handle.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: sqlite store requires database handle")
	}
	if err := db.AutoMigrate(&PersistedEntry{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry PersistedEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: sqlite get %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	entry := PersistedEntry{Key: key}
	err := s.db.WithContext(ctx).
		Where(PersistedEntry{Key: key}).
		Assign(PersistedEntry{Value: value, UpdatedAt: time.Now()}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return fmt.Errorf("storage: sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&PersistedEntry{}).Error; err != nil {
		return fmt.Errorf("storage: sqlite delete: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

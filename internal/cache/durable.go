package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type cacheEntry struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Data      []byte    `gorm:"column:data"`
	Timestamp time.Time `gorm:"column:timestamp"`
}

func (cacheEntry) TableName() string {
	return "cache_entries"
}

// Durable is the persistent tier, a single sqlite file. It plays the part
// the browser's origin-scoped storage played for the old client: entries
// survive restarts and are only refreshed when a caller decides they are
// stale.
type Durable struct {
	db *gorm.DB
}

// OpenDurable opens (and if needed creates) the cache database at path.
func OpenDurable(path string) (*Durable, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}

	if err := db.AutoMigrate(&cacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Durable{db: db}, nil
}

func (d *Durable) Get(ctx context.Context, key string) (Entry, bool, error) {
	var row cacheEntry
	err := d.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return Entry{Data: row.Data, Timestamp: row.Timestamp}, true, nil
}

func (d *Durable) Set(ctx context.Context, key string, data json.RawMessage) error {
	row := cacheEntry{Key: key, Data: data, Timestamp: time.Now()}
	return d.db.WithContext(ctx).Save(&row).Error
}

func (d *Durable) Delete(ctx context.Context, key string) error {
	return d.db.WithContext(ctx).Where("key = ?", key).Delete(&cacheEntry{}).Error
}

// Ping checks the underlying sqlite handle, for readiness probes.
func (d *Durable) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying sqlite handle.
func (d *Durable) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

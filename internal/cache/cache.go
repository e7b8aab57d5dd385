package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one cached payload with the moment it was written. Freshness is
// the caller's policy, not the cache's: an entry is never evicted, only
// overwritten or explicitly deleted.
type Entry struct {
	Data      json.RawMessage
	Timestamp time.Time
}

// Fresh reports whether the entry is younger than window. A window of zero
// or less means the entry never goes stale (indefinite-until-forced).
func (e Entry) Fresh(window time.Duration) bool {
	if window <= 0 {
		return true
	}
	return time.Since(e.Timestamp) < window
}

// Cache is the shared contract for both tiers: the durable one that survives
// restarts and the volatile per-process one.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, data json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into dest. The entry is returned so the
// caller can apply its freshness window.
func GetJSON(ctx context.Context, c Cache, key string, dest any) (Entry, bool, error) {
	entry, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return c.Set(ctx, key, data)
}

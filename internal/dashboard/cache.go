package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey  = "snapshot:version"
	bumpChannel = "ledger.bump"
)

// Cache stores composed analysis snapshots in Redis under month-scoped,
// versioned keys. The month in the key makes a calendar rollover start a
// fresh entry on its own; the version suffix lets a single Bump invalidate
// every company at once after a ledger write. A nil Cache (or nil client) is
// a valid pass-through: lookups miss, stores are dropped.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a Redis client for snapshot storage.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// SnapshotKey builds the storage key for one company's snapshot in the given
// month, e.g. "snapshot:42:2024-07:v3".
func (c *Cache) SnapshotKey(ctx context.Context, companyID int64, month string) (string, error) {
	if c == nil || c.client == nil {
		return fmt.Sprintf("snapshot:%d:%s", companyID, month), nil
	}
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("snapshot:%d:%s:v%d", companyID, month, ver), nil
}

// Lookup returns the cached snapshot for key. A corrupt payload counts as a
// miss so one bad entry cannot wedge a company until its TTL expires.
func (c *Cache) Lookup(ctx context.Context, key string) (Snapshot, bool, error) {
	if c == nil || c.client == nil {
		return Snapshot{}, false, nil
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, false, nil
	}
	return snapshot, true, nil
}

// Store writes a snapshot under key with the configured TTL.
func (c *Cache) Store(ctx context.Context, key string, snapshot Snapshot) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump invalidates all snapshots by incrementing the global version, then
// publishes the new version so other instances can drop local state.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// version reads the current global version, initialising it to 1 the first
// time a key is built.
func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if err == redis.Nil || (err == nil && ver <= 0) {
		if setErr := c.client.Set(ctx, versionKey, 1, 0).Err(); setErr != nil {
			return 0, setErr
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

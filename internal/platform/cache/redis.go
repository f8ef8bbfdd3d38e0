package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Snapshot payloads are tens of kilobytes; anything slower than this is
	// worse than recomputing, so the client fails fast and the caller falls
	// back to the no-cache path.
	dialTimeout  = 2 * time.Second
	opTimeout    = 500 * time.Millisecond
	pingTimeout  = 5 * time.Second
	minIdleConns = 2
)

// New opens a go-redis client tuned for the snapshot cache and verifies the
// server is reachable before returning it.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		MinIdleConns: minIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}

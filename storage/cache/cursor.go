package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/codesage/codesage/core/progress"
)

// cursorTTL bounds how long a stale resume cursor can linger.
const cursorTTL = 90 * 24 * time.Hour

type cursorCache struct {
	client *redis.Client
}

var _ progress.CursorCache = (*cursorCache)(nil) // interface compliance check

func NewCursorCache(client *redis.Client) progress.CursorCache {
	return &cursorCache{client: client}
}

func cursorKey(userID, tier string) string {
	return "cursor:" + userID + ":" + tier
}

func (c *cursorCache) GetCursor(ctx context.Context, userID, tier string) (string, error) {
	val, err := c.client.Get(ctx, cursorKey(userID, tier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Wrap(err, "getting cursor")
	}
	return val, nil
}

func (c *cursorCache) SetCursor(ctx context.Context, userID, tier, lessonID string) error {
	return errors.Wrap(
		c.client.Set(ctx, cursorKey(userID, tier), lessonID, cursorTTL).Err(),
		"setting cursor")
}

// MemoryCursorCache is an in-process CursorCache for tests and local
// development.
type MemoryCursorCache struct {
	mu    sync.RWMutex
	table map[string]string
}

var _ progress.CursorCache = (*MemoryCursorCache)(nil)

func NewMemoryCursorCache() *MemoryCursorCache {
	return &MemoryCursorCache{table: make(map[string]string)}
}

func (c *MemoryCursorCache) GetCursor(_ context.Context, userID, tier string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table[cursorKey(userID, tier)], nil
}

func (c *MemoryCursorCache) SetCursor(_ context.Context, userID, tier, lessonID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table[cursorKey(userID, tier)] = lessonID
	return nil
}

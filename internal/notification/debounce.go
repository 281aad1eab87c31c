package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DebounceCache hands out time-limited claims on keys. Claim succeeds for
// exactly one caller until the key expires or is released.
type DebounceCache interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// LowStockKey is the debounce key for a product's low-stock notification.
func LowStockKey(productID int64) string {
	return fmt.Sprintf("low_stock_notification:%d", productID)
}

type cmdable interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDebounce keeps debounce keys in Redis so every instance shares them.
type RedisDebounce struct {
	store cmdable
}

func NewRedisDebounce(client *redis.Client) *RedisDebounce {
	return &RedisDebounce{store: client}
}

func (d *RedisDebounce) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming debounce key %s: %w", key, err)
	}
	return ok, nil
}

func (d *RedisDebounce) Release(ctx context.Context, key string) error {
	if err := d.store.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("releasing debounce key %s: %w", key, err)
	}
	return nil
}

// MemoryDebounce is a process-local DebounceCache used when Redis is disabled.
type MemoryDebounce struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryDebounce() *MemoryDebounce {
	return &MemoryDebounce{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *MemoryDebounce) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if exp, ok := d.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	d.expires[key] = now.Add(ttl)
	return true, nil
}

func (d *MemoryDebounce) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.expires, key)
	return nil
}

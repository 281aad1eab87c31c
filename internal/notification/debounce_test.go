package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	values map[string]time.Duration
	err    error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{values: map[string]time.Duration{}}
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if m.err != nil {
		return redis.NewBoolResult(false, m.err)
	}
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if m.err != nil {
		return redis.NewIntResult(0, m.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestLowStockKey(t *testing.T) {
	assert.Equal(t, "low_stock_notification:42", LowStockKey(42))
}

func TestRedisDebounce_ClaimOnce(t *testing.T) {
	mock := newMockCmdable()
	d := &RedisDebounce{store: mock}
	ctx := context.Background()

	claimed, err := d.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, time.Hour, mock.values["k"])

	claimed, err = d.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRedisDebounce_ReleaseAllowsReclaim(t *testing.T) {
	mock := newMockCmdable()
	d := &RedisDebounce{store: mock}
	ctx := context.Background()

	_, err := d.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NoError(t, d.Release(ctx, "k"))

	claimed, err := d.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisDebounce_Error(t *testing.T) {
	mock := newMockCmdable()
	mock.err = errors.New("connection refused")
	d := &RedisDebounce{store: mock}

	_, err := d.Claim(context.Background(), "k", time.Hour)
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, d.Release(context.Background(), "k"))
}

func TestMemoryDebounce_Expires(t *testing.T) {
	d := NewMemoryDebounce()
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	claimed, _ := d.Claim(ctx, "k", time.Hour)
	require.True(t, claimed)

	now = now.Add(59 * time.Minute)
	claimed, _ = d.Claim(ctx, "k", time.Hour)
	assert.False(t, claimed)

	now = now.Add(time.Minute)
	claimed, _ = d.Claim(ctx, "k", time.Hour)
	assert.True(t, claimed)
}

func TestMemoryDebounce_Release(t *testing.T) {
	d := NewMemoryDebounce()
	ctx := context.Background()

	claimed, _ := d.Claim(ctx, "k", time.Hour)
	require.True(t, claimed)
	require.NoError(t, d.Release(ctx, "k"))

	claimed, _ = d.Claim(ctx, "k", time.Hour)
	assert.True(t, claimed)
}

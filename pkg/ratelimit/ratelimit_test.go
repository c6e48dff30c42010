package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow(t *testing.T) {
	krl := New(1, 2)
	defer krl.Stop()

	assert.True(t, krl.Allow("user:1"))
	assert.True(t, krl.Allow("user:1"))
	assert.False(t, krl.Allow("user:1"), "桶容量为2，第三次应被拒绝")

	// 不同key互不影响
	assert.True(t, krl.Allow("user:2"))
	assert.Equal(t, 2, krl.Len())
}

func TestWait(t *testing.T) {
	krl := New(1, 1)
	defer krl.Stop()

	require.True(t, krl.Allow("ip:127.0.0.1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, krl.Wait(ctx, "ip:127.0.0.1"), "下一个令牌1秒后才可用")
}

func TestEvictIdle(t *testing.T) {
	krl := NewWithTTL(10, 10, time.Hour)
	defer krl.Stop()

	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	krl.now = func() time.Time { return current }

	krl.Allow("old")
	current = current.Add(2 * time.Hour)
	krl.Allow("fresh")

	krl.evictIdle()
	assert.Equal(t, 1, krl.Len())
}

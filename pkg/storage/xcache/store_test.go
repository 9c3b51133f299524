package xcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLStore(t *testing.T) {
	s := NewTTLStore[string](WithCleanupInterval(10 * time.Millisecond))
	defer func() { require.NoError(t, s.Close()) }()

	s.Set("forever", "a", NoExpiration)
	s.Set("short", "b", 30*time.Millisecond)
	assert.Equal(t, 2, s.Len())

	v, ok := s.Get("short")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	// 后台清理移除过期条目。
	require.Eventually(t, func() bool { return s.Len() == 1 }, time.Second, 5*time.Millisecond)
	_, ok = s.Get("short")
	assert.False(t, ok)
	v, ok = s.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	s.Delete("forever")
	s.Delete("missing")
	assert.Equal(t, 0, s.Len())

	// 重复关闭是安全的。
	require.NoError(t, s.Close())
}

func TestTTLStoreWithoutJanitor(t *testing.T) {
	s := NewTTLStore[int](WithCleanupInterval(0), WithCapacity(2), nil)
	defer s.Close()

	s.Set("a", 1, time.Hour)
	s.Set("b", 2, time.Hour)
	s.Set("c", 3, time.Hour)

	// 容量为 2，最早写入的条目被淘汰。
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestTTLStoreOverwriteResetsTTL(t *testing.T) {
	s := NewTTLStore[int](WithCleanupInterval(0))
	defer s.Close()

	s.Set("key", 1, 40*time.Millisecond)
	s.Set("key", 2, time.Hour)
	time.Sleep(80 * time.Millisecond)

	v, ok := s.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestRistrettoStore(t *testing.T) {
	s, err := NewRistrettoStore[string](WithRistrettoMaxEntries(100), WithRistrettoMaxEntries(-1), nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	s.Set("key", "value", NoExpiration)
	v, ok := s.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	s.Set("short", "gone", 20*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := s.Get("short")
		return !ok
	}, time.Second, 5*time.Millisecond)

	s.Delete("key")
	_, ok = s.Get("key")
	assert.False(t, ok)
}

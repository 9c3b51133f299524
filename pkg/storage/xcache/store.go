package xcache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// NoExpiration 表示条目永不过期。
const NoExpiration time.Duration = -1

// Store 是带过期能力的本地键值存储。
//
// Cache 只会传入 ttl > 0 或 NoExpiration。
// 实现必须并发安全，Get 不得返回已过期的条目。
type Store[V any] interface {
	// Get 返回未过期的条目。
	Get(key string) (V, bool)
	// Set 写入或覆盖条目，同时重置过期时间。
	Set(key string, value V, ttl time.Duration)
	// Delete 删除条目，不存在时为空操作。
	Delete(key string)
	// Close 释放存储持有的后台资源。
	Close() error
}

// =============================================================================
// ttlcache 实现
// =============================================================================

const defaultCleanupInterval = time.Minute

type ttlStoreOptions struct {
	capacity        uint64
	cleanupInterval time.Duration
}

// TTLStoreOption 配置 TTLStore。
type TTLStoreOption func(*ttlStoreOptions)

// WithCapacity 设置最大条目数，超出后按 LRU 淘汰。0 表示不限制。
func WithCapacity(n uint64) TTLStoreOption {
	return func(o *ttlStoreOptions) {
		o.capacity = n
	}
}

// WithCleanupInterval 设置过期条目的后台清理间隔。
// d <= 0 时不启动清理 goroutine，过期条目仅在读取时被忽略。
func WithCleanupInterval(d time.Duration) TTLStoreOption {
	return func(o *ttlStoreOptions) {
		o.cleanupInterval = d
	}
}

// TTLStore 基于 jellydator/ttlcache 的 Store 实现，支持逐条目 TTL。
type TTLStore[V any] struct {
	cache *ttlcache.Cache[string, V]

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewTTLStore 创建 TTLStore。
func NewTTLStore[V any](opts ...TTLStoreOption) *TTLStore[V] {
	o := &ttlStoreOptions{cleanupInterval: defaultCleanupInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cacheOpts := []ttlcache.Option[string, V]{
		ttlcache.WithDisableTouchOnHit[string, V](),
	}
	if o.capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, V](o.capacity))
	}

	s := &TTLStore[V]{
		cache: ttlcache.New[string, V](cacheOpts...),
		stop:  make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		s.wg.Add(1)
		go s.janitor(o.cleanupInterval)
	}
	return s
}

// Get 返回未过期的条目。
func (s *TTLStore[V]) Get(key string) (V, bool) {
	item := s.cache.Get(key)
	if item == nil {
		var zero V
		return zero, false
	}
	return item.Value(), true
}

// Set 写入条目。
func (s *TTLStore[V]) Set(key string, value V, ttl time.Duration) {
	if ttl < 0 {
		ttl = ttlcache.NoTTL
	}
	s.cache.Set(key, value, ttl)
}

// Delete 删除条目。
func (s *TTLStore[V]) Delete(key string) {
	s.cache.Delete(key)
}

// Len 返回未过期的条目数。
func (s *TTLStore[V]) Len() int {
	return s.cache.Len()
}

// Close 停止后台清理。多次调用是安全的。
func (s *TTLStore[V]) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *TTLStore[V]) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cache.DeleteExpired()
		}
	}
}

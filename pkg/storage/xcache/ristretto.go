package xcache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// RistrettoOptions 定义 ristretto 存储的配置选项。
type RistrettoOptions struct {
	// NumCounters 用于跟踪频率的计数器数量，建议为预期 key 数量的 10 倍。
	NumCounters int64

	// MaxEntries 最大条目数。每个条目的 cost 固定为 1。
	MaxEntries int64

	// BufferItems 写入缓冲区的大小。
	BufferItems int64
}

// RistrettoOption 定义配置 ristretto 存储的函数类型。
type RistrettoOption func(*RistrettoOptions)

func defaultRistrettoOptions() *RistrettoOptions {
	return &RistrettoOptions{
		NumCounters: 1e6,
		MaxEntries:  1e5,
		BufferItems: 64,
	}
}

// WithRistrettoMaxEntries 设置最大条目数，n <= 0 时忽略。
// 计数器数量同步调整为 10 倍。
func WithRistrettoMaxEntries(n int64) RistrettoOption {
	return func(o *RistrettoOptions) {
		if n > 0 {
			o.MaxEntries = n
			o.NumCounters = n * 10
		}
	}
}

// RistrettoStore 基于 ristretto 的 Store 实现。
//
// ristretto 的准入策略可能拒绝新条目，被拒绝的句柄不会进入存储，
// 此时同一 key 的并发请求可能各自回源。需要严格单飞时使用 TTLStore。
type RistrettoStore[V any] struct {
	cache *ristretto.Cache[string, V]
}

// NewRistrettoStore 创建 ristretto 存储。
func NewRistrettoStore[V any](opts ...RistrettoOption) (*RistrettoStore[V], error) {
	o := defaultRistrettoOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters:        o.NumCounters,
		MaxCost:            o.MaxEntries,
		BufferItems:        o.BufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("xcache: create ristretto store: %w", err)
	}
	return &RistrettoStore[V]{cache: cache}, nil
}

// Get 返回未过期的条目。
func (s *RistrettoStore[V]) Get(key string) (V, bool) {
	return s.cache.Get(key)
}

// Set 写入条目并等待缓冲区落地，使写入对后续 Get 立即可见。
func (s *RistrettoStore[V]) Set(key string, value V, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0 // ristretto 以 0 表示永不过期
	}
	s.cache.SetWithTTL(key, value, 1, ttl)
	s.cache.Wait()
}

// Delete 删除条目。
func (s *RistrettoStore[V]) Delete(key string) {
	s.cache.Del(key)
}

// Close 关闭 ristretto 的后台 goroutine。
func (s *RistrettoStore[V]) Close() error {
	s.cache.Close()
	return nil
}

package xkeylock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// shardedLocker 是每个 key 一个信号量的分片实现。
type shardedLocker struct {
	base

	shards   []shard
	mask     uint64
	maxKeys  int64
	keyCount atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newShardedLocker(o options) *shardedLocker {
	shards := make([]shard, o.shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*entry)
	}
	l := &shardedLocker{
		shards:  shards,
		mask:    uint64(o.shardCount - 1), //nolint:gosec // validate 已保证为正的 2 的幂
		maxKeys: int64(o.maxKeys),
	}
	l.base = base{reg: l, done: make(chan struct{})}
	return l
}

func (l *shardedLocker) shardFor(key string) *shard {
	return &l.shards[xxhash.Sum64String(key)&l.mask]
}

func (l *shardedLocker) ref(key string) (*entry, error) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	// 与 Close 之间的竞争由 acquire 中的 done 分支兜底。
	if l.closed.Load() {
		return nil, ErrClosed
	}

	e, ok := s.entries[key]
	if !ok {
		if l.maxKeys > 0 {
			// CAS 保证跨分片并发时也不会突破上限。
			for {
				cur := l.keyCount.Load()
				if cur >= l.maxKeys {
					return nil, ErrMaxKeysExceeded
				}
				if l.keyCount.CompareAndSwap(cur, cur+1) {
					break
				}
			}
		} else {
			l.keyCount.Add(1)
		}
		e = &entry{sem: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refs++
	return e, nil
}

func (l *shardedLocker) unref(key string, e *entry) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
		l.keyCount.Add(-1)
	}
}

func (l *shardedLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	return l.acquire(ctx, key)
}

func (l *shardedLocker) TryAcquire(key string) (Handle, error) {
	return l.tryAcquire(key)
}

func (l *shardedLocker) Len() int {
	return int(max(l.keyCount.Load(), 0))
}

func (l *shardedLocker) Keys() []string {
	keys := make([]string, 0, l.Len())
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	return keys
}

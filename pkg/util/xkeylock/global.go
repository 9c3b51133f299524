package xkeylock

import (
	"context"
	"sync"
)

// globalLocker 所有 key 共享同一个信号量。
// 注册表只用于引用计数，保持与分片实现相同的 Len/Keys 语义。
type globalLocker struct {
	base

	sem     chan struct{}
	mu      sync.Mutex
	entries map[string]*entry
}

func newGlobalLocker() *globalLocker {
	l := &globalLocker{
		sem:     make(chan struct{}, 1),
		entries: make(map[string]*entry),
	}
	l.base = base{reg: l, done: make(chan struct{})}
	return l
}

func (l *globalLocker) ref(key string) (*entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: l.sem}
		l.entries[key] = e
	}
	e.refs++
	return e, nil
}

func (l *globalLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *globalLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	return l.acquire(ctx, key)
}

func (l *globalLocker) TryAcquire(key string) (Handle, error) {
	return l.tryAcquire(key)
}

func (l *globalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *globalLocker) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	return keys
}

// 编译期接口检查。
var (
	_ Locker = (*shardedLocker)(nil)
	_ Locker = (*globalLocker)(nil)
	_ Handle = (*handle)(nil)
)

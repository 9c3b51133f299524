package xkeylock

import (
	"context"
	"sync/atomic"
)

// entry 是某个 key 在注册表中的条目。
// sem 是容量为 1 的 channel，发送成功即获得锁，接收即释放锁。
// refs 统计持有者与等待者数量，只在所属注册表的互斥锁内读写。
type entry struct {
	sem  chan struct{}
	refs int
}

// registry 抽象分片注册表与全局注册表的引用计数操作。
type registry interface {
	// ref 查找或创建 key 的条目并将引用计数加一。
	ref(key string) (*entry, error)
	// unref 将引用计数减一，归零时在同一临界区内删除条目。
	unref(key string, e *entry)
}

// base 是两种 Locker 共享的获取/关闭逻辑。
type base struct {
	reg    registry
	closed atomic.Bool
	done   chan struct{}
}

func (b *base) acquire(ctx context.Context, key string) (Handle, error) {
	if ctx == nil {
		panic("xkeylock: nil Context")
	}
	if key == "" {
		return nil, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}
	e, err := b.reg.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.sem <- struct{}{}:
		return &handle{reg: b.reg, key: key, entry: e}, nil
	case <-ctx.Done():
		b.reg.unref(key, e)
		return nil, ctx.Err()
	case <-b.done:
		b.reg.unref(key, e)
		return nil, ErrClosed
	}
}

func (b *base) tryAcquire(key string) (Handle, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}
	e, err := b.reg.ref(key)
	if err != nil {
		return nil, err
	}
	select {
	case e.sem <- struct{}{}:
		return &handle{reg: b.reg, key: key, entry: e}, nil
	default:
		b.reg.unref(key, e)
		return nil, ErrLockOccupied
	}
}

// Close 拒绝新的获取并唤醒所有等待者，已持有的锁不受影响。
func (b *base) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(b.done)
	return nil
}

// handle 实现 Handle 接口。
type handle struct {
	reg   registry
	key   string
	entry *entry
	done  atomic.Bool
}

func (h *handle) Unlock() error {
	if !h.done.CompareAndSwap(false, true) {
		return ErrLockNotHeld
	}
	<-h.entry.sem
	h.reg.unref(h.key, h.entry)
	return nil
}

func (h *handle) Key() string {
	return h.key
}

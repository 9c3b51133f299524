package xkeylock

import (
	"context"
	"io"
)

// Handle 表示一次成功的锁获取。
type Handle interface {
	// Unlock 释放锁。
	// 幂等：第一次调用返回 nil，后续调用返回 [ErrLockNotHeld]。
	Unlock() error

	// Key 返回锁的 key，Unlock 之后仍可调用。
	Key() string
}

// Locker 提供基于 key 的进程内互斥锁。所有方法都是并发安全的。
type Locker interface {
	io.Closer

	// Acquire 阻塞式获取锁，等待期间响应 ctx 取消。
	// ctx 取消时返回 ctx.Err()，Locker 关闭时返回 [ErrClosed]。
	// 等待被取消的调用不会在注册表中残留引用。
	// ctx 不得为 nil，否则 panic。
	Acquire(ctx context.Context, key string) (Handle, error)

	// TryAcquire 非阻塞获取锁。锁被占用时返回 (nil, [ErrLockOccupied])。
	TryAcquire(key string) (Handle, error)

	// Len 返回注册表中活跃的 key 数量（持有者或等待者）。
	Len() int

	// Keys 返回注册表中活跃 key 的快照，仅用于调试和测试。
	Keys() []string
}

// New 创建按 key 分片的 Locker。
// 配置无效时返回错误（如分片数不是 2 的幂）。
func New(opts ...Option) (Locker, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return newShardedLocker(o), nil
}

// NewGlobal 创建所有 key 共享一个信号量的 Locker。
// 注册表仍按 key 统计引用，Len/Keys 语义与 [New] 一致。
func NewGlobal() Locker {
	return newGlobalLocker()
}

// Do 获取 key 的锁后执行 fn，并保证在所有退出路径上释放锁。
// 获取失败时 fn 不会被调用，直接返回获取错误。
func Do(ctx context.Context, l Locker, key string, fn func(ctx context.Context) error) error {
	h, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = h.Unlock() }() //nolint:errcheck // 首次 Unlock 不会失败
	return fn(ctx)
}

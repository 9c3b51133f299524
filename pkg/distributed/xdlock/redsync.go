package xdlock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// redsyncLeaser 使用 Redlock 算法实现 Leaser。
type redsyncLeaser struct {
	rs     *redsync.Redsync
	opts   *options
	closed atomic.Bool
}

// NewRedsyncLeaser 创建基于 go-redsync 的租约工厂。
// 单个客户端为普通 Redis 锁；多个独立节点使用 Redlock（需过半成功）。
func NewRedsyncLeaser(clients []redis.UniversalClient, opts ...Option) (Leaser, error) {
	if len(clients) == 0 {
		return nil, ErrNilClient
	}
	pools := make([]rsredis.Pool, len(clients))
	for i, client := range clients {
		if client == nil {
			return nil, fmt.Errorf("%w: client at index %s", ErrNilClient, strconv.Itoa(i))
		}
		pools[i] = goredis.NewPool(client)
	}
	return &redsyncLeaser{rs: redsync.New(pools...), opts: applyOptions(opts)}, nil
}

// Acquire 获取租约。每次尝试都生成新的 token。
func (l *redsyncLeaser) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Lease, error) {
	if err := validate(ctx, key, ttl); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	fullKey := l.opts.keyPrefix + key
	return poll(ctx, l.opts, wait, func(ctx context.Context) (Lease, error) {
		mutex := l.rs.NewMutex(fullKey,
			redsync.WithExpiry(ttl),
			redsync.WithTries(1),
			redsync.WithGenValueFunc(func() (string, error) { return l.opts.tokenFunc(), nil }),
		)
		if err := mutex.TryLockContext(ctx); err != nil {
			return nil, wrapRedsyncError(fullKey, err)
		}
		return &redsyncLease{mutex: mutex}, nil
	})
}

// Close 关闭 Leaser。
func (l *redsyncLeaser) Close() error {
	l.closed.Store(true)
	return nil
}

type redsyncLease struct {
	mutex    *redsync.Mutex
	released atomic.Bool
}

func (l *redsyncLease) Key() string   { return l.mutex.Name() }
func (l *redsyncLease) Token() string { return l.mutex.Value() }

// Release 释放租约。
func (l *redsyncLease) Release(ctx context.Context) error {
	if l.released.Swap(true) {
		return ErrLeaseLost
	}
	ctx, cancel := releaseContext(ctx)
	defer cancel()

	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return ErrLeaseLost
		}
		return fmt.Errorf("xdlock: release %q: %w", l.mutex.Name(), err)
	}
	if !ok {
		return ErrLeaseLost
	}
	return nil
}

// wrapRedsyncError 将占用类错误归一为 ErrLeaseHeld，保留原始错误链。
func wrapRedsyncError(key string, err error) error {
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken
	switch {
	case errors.As(err, &taken), errors.As(err, &nodeTaken), errors.Is(err, redsync.ErrFailed):
		return fmt.Errorf("%w: %w", ErrLeaseHeld, err)
	default:
		return fmt.Errorf("xdlock: acquire %q: %w", key, err)
	}
}

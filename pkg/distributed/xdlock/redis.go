package xdlock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript 比较 token 后删除租约。
// 返回 1 表示成功释放，0 表示租约已不属于当前持有者。
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// redisLeaser 使用单个 Redis 实现 Leaser。
type redisLeaser struct {
	client redis.UniversalClient
	opts   *options
	closed atomic.Bool
}

// NewRedisLeaser 创建基于 SET NX PX 的租约工厂。
// 客户端的生命周期由调用方管理。
func NewRedisLeaser(client redis.UniversalClient, opts ...Option) (Leaser, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &redisLeaser{client: client, opts: applyOptions(opts)}, nil
}

// Acquire 获取租约。
func (l *redisLeaser) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Lease, error) {
	if err := validate(ctx, key, ttl); err != nil {
		return nil, err
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}

	fullKey := l.opts.keyPrefix + key
	return poll(ctx, l.opts, wait, func(ctx context.Context) (Lease, error) {
		token := l.opts.tokenFunc()
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("xdlock: acquire %q: %w", fullKey, err)
		}
		if !ok {
			return nil, ErrLeaseHeld
		}
		return &redisLease{client: l.client, key: fullKey, token: token}, nil
	})
}

// Close 关闭 Leaser。已获取的租约仍可释放。
func (l *redisLeaser) Close() error {
	l.closed.Store(true)
	return nil
}

type redisLease struct {
	client   redis.UniversalClient
	key      string
	token    string
	released atomic.Bool
}

func (l *redisLease) Key() string   { return l.key }
func (l *redisLease) Token() string { return l.token }

// Release 释放租约。调用方 ctx 已取消时使用独立的清理 context。
func (l *redisLease) Release(ctx context.Context) error {
	if l.released.Swap(true) {
		return ErrLeaseLost
	}
	ctx, cancel := releaseContext(ctx)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("xdlock: release %q: %w", l.key, err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}

package xcoord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xonce/pkg/distributed/xdlock"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

const component = "xcoord"

type redisCoordinator struct {
	client     redis.UniversalClient
	opts       *options
	logger     *slog.Logger
	leaser     xdlock.Leaser
	ownsLeaser bool
	cb         *gobreaker.CircuitBreaker[any]

	closed atomic.Bool
	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
}

// NewRedis 创建基于 go-redis 的 Coordinator。
// 客户端的生命周期由调用方管理；Close 只关闭内部创建的租约工厂和未关闭的订阅。
func NewRedis(client redis.UniversalClient, opts ...Option) (Coordinator, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	c := &redisCoordinator{
		client: client,
		opts:   o,
		logger: o.logger,
		leaser: o.leaser,
		subs:   make(map[*redisSubscription]struct{}),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.leaser == nil {
		l, err := xdlock.NewRedisLeaser(client)
		if err != nil {
			return nil, fmt.Errorf("xcoord: create leaser: %w", err)
		}
		c.leaser = l
		c.ownsLeaser = true
	}
	if o.breakerFailures > 0 {
		c.cb = gobreaker.NewCircuitBreaker[any](c.breakerSettings())
	}
	return c, nil
}

func (c *redisCoordinator) breakerSettings() gobreaker.Settings {
	failures := c.opts.breakerFailures
	return gobreaker.Settings{
		Name:    component,
		Timeout: c.opts.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return !isStoreFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("xcoord: circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
}

// Get 读取 key 的值。
func (c *redisCoordinator) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := c.check(ctx, key); err != nil {
		return nil, false, err
	}
	var (
		value []byte
		found bool
	)
	err := c.do(ctx, "get", key, func(ctx context.Context) error {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set 写入 key 的值。
func (c *redisCoordinator) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.check(ctx, key); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.do(ctx, "set", key, func(ctx context.Context) error {
		return c.client.Set(ctx, c.key(key), value, ttl).Err()
	})
}

// RemainingTTL 返回 key 的剩余存活时间（毫秒精度）。
func (c *redisCoordinator) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	if err := c.check(ctx, key); err != nil {
		return 0, false, err
	}
	var (
		ttl   time.Duration
		found bool
	)
	err := c.do(ctx, "pttl", key, func(ctx context.Context) error {
		d, err := c.client.PTTL(ctx, c.key(key)).Result()
		if err != nil {
			return err
		}
		// PTTL：-2 表示 key 不存在，-1 表示没有过期时间。
		switch d {
		case -2:
		case -1:
			ttl, found = NoExpiration, true
		default:
			ttl, found = d, true
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return ttl, found, nil
}

// Delete 删除 key。
func (c *redisCoordinator) Delete(ctx context.Context, key string) error {
	if err := c.check(ctx, key); err != nil {
		return err
	}
	return c.do(ctx, "del", key, func(ctx context.Context) error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
}

// AcquireLease 获取 key 的租约。wait <= 0 时使用租约 TTL 作为等待时间。
func (c *redisCoordinator) AcquireLease(ctx context.Context, key string, wait time.Duration) (xdlock.Lease, error) {
	if err := c.check(ctx, key); err != nil {
		return nil, err
	}
	if wait <= 0 {
		wait = c.opts.leaseTTL
	}
	var lease xdlock.Lease
	err := c.do(ctx, "lease", key, func(ctx context.Context) error {
		l, err := c.leaser.Acquire(ctx, c.key(key), c.opts.leaseTTL, wait)
		if err != nil {
			return err
		}
		lease = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lease, nil
}

// Publish 发布消息。
func (c *redisCoordinator) Publish(ctx context.Context, channel, message string) error {
	if err := c.checkChannel(ctx, channel); err != nil {
		return err
	}
	return c.do(ctx, "publish", channel, func(ctx context.Context) error {
		return c.client.Publish(ctx, channel, message).Err()
	})
}

// Subscribe 订阅 channel。
func (c *redisCoordinator) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := c.checkChannel(ctx, channel); err != nil {
		return nil, err
	}
	var ps *redis.PubSub
	err := c.do(ctx, "subscribe", channel, func(ctx context.Context) error {
		p := c.client.Subscribe(ctx, channel)
		// 等待订阅确认，确保返回后发布的消息能被收到。
		if _, err := p.Receive(ctx); err != nil {
			_ = p.Close()
			return err
		}
		ps = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub := newRedisSubscription(ps, c.forget)
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		_ = sub.Close()
		return nil, ErrClosed
	}
	c.subs[sub] = struct{}{}
	c.mu.Unlock()
	return sub, nil
}

// Close 关闭所有未关闭的订阅和内部创建的租约工厂。
func (c *redisCoordinator) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	subs := make([]*redisSubscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ownsLeaser {
		if err := c.leaser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xcoord: close leaser: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *redisCoordinator) forget(s *redisSubscription) {
	c.mu.Lock()
	delete(c.subs, s)
	c.mu.Unlock()
}

func (c *redisCoordinator) key(key string) string {
	return c.opts.keyPrefix + key
}

func (c *redisCoordinator) check(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (c *redisCoordinator) checkChannel(ctx context.Context, channel string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if channel == "" {
		return ErrEmptyChannel
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// do 在观测跨度和熔断器（如启用）内执行一次 Redis 调用，并归一错误。
func (c *redisCoordinator) do(ctx context.Context, op, target string, fn func(context.Context) error) (err error) {
	ctx, span := xmetrics.Start(ctx, c.opts.observer, xmetrics.SpanOptions{
		Component: component,
		Operation: op,
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.Target(target)},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if c.cb == nil {
		err = fn(ctx)
	} else {
		_, err = c.cb.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
	}
	return classify(op, target, err)
}

// isStoreFailure 报告 err 是否应视为存储故障。
// ctx 取消和租约竞争属于正常结果，不计入熔断。
func isStoreFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, xdlock.ErrLeaseTimeout),
		errors.Is(err, xdlock.ErrLeaseLost):
		return false
	default:
		return true
	}
}

func classify(op, target string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s %q: %w", ErrStoreUnavailable, op, target, err)
	case !isStoreFailure(err):
		return err
	default:
		return fmt.Errorf("%w: %s %q: %w", ErrStoreUnavailable, op, target, err)
	}
}

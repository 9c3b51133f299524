package xtwolayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xonce/pkg/distributed/xcoord"
	"github.com/omeyang/xonce/pkg/distributed/xdlock"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
	"github.com/omeyang/xonce/pkg/storage/xcache"
)

const component = "xtwolayer"

// Cache 是两级缓存。必须通过 New 创建，使用完毕后调用 Close。
type Cache[T any] struct {
	local   *xcache.Cache[T]
	coord   xcoord.Coordinator
	codec   Codec[T]
	changes *ChangeLog
	opts    *options
	logger  *slog.Logger

	sub    xcoord.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New 创建两级缓存。开启通知时在返回前完成订阅，ctx 只用于这次订阅。
// Coordinator 的生命周期由调用方管理。
func New[T any](ctx context.Context, coord xcoord.Coordinator, opts ...Option) (*Cache[T], error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if coord == nil {
		return nil, ErrNilCoordinator
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	c := &Cache[T]{coord: coord, opts: o, logger: o.logger}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	c.codec = JSONCodec[T]{}
	if o.codec != nil {
		codec, ok := o.codec.(Codec[T])
		if !ok {
			return nil, fmt.Errorf("%w: codec has type %T", ErrInvalidConfig, o.codec)
		}
		c.codec = codec
	}

	localOpts := append([]xcache.Option{
		xcache.WithLogger(o.logger),
		xcache.WithObserver(o.observer),
	}, o.localOptions...)
	local, err := xcache.New[T](localOpts...)
	if err != nil {
		return nil, fmt.Errorf("xtwolayer: create local cache: %w", err)
	}
	c.local = local

	if o.notifications {
		if err := c.listen(ctx); err != nil {
			_ = local.Close()
			return nil, err
		}
	}
	return c, nil
}

// listen 订阅通知频道并启动订阅 goroutine。
func (c *Cache[T]) listen(ctx context.Context) error {
	changes, err := NewChangeLog(c.opts.changeLogSize, c.opts.changeLogTTL)
	if err != nil {
		return err
	}
	sub, err := c.coord.Subscribe(ctx, c.opts.channel)
	if err != nil {
		changes.Close()
		return fmt.Errorf("xtwolayer: subscribe %q: %w", c.opts.channel, err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.changes = changes
	c.sub = sub
	c.cancel = cancel
	c.wg.Add(1)
	go c.consume(loopCtx, sub.Messages())
	return nil
}

// consume 逐条处理通知，直到 ctx 取消或订阅关闭。
func (c *Cache[T]) consume(ctx context.Context, messages <-chan string) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-messages:
			if !ok {
				if ctx.Err() == nil {
					c.logger.Warn("xtwolayer: subscription ended", slog.String("channel", c.opts.channel))
				}
				return
			}
			c.handleNotice(ctx, key)
		}
	}
}

func (c *Cache[T]) handleNotice(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if c.changes.Consume(key) {
		c.count(ctx, xmetrics.EventSelfEcho)
		return
	}
	if err := c.local.Delete(ctx, key); err != nil {
		if ctx.Err() == nil && !errors.Is(err, xcache.ErrClosed) {
			c.logger.Warn("xtwolayer: local invalidation failed", slog.String("key", key), slog.Any("error", err))
		}
		return
	}
	c.count(ctx, xmetrics.EventInvalidate)
	c.logger.Debug("xtwolayer: invalidated local entry", slog.String("key", key))
}

// Load 返回 key 对应的值，两级都未命中时调用 factory。
// p 决定 TTL（两级共用）和无效哨兵；Fixed(0) 在分布式层使用 WithDefaultTTL。
//
// 返回的错误：租约超时为 xcoord.ErrLeaseTimeout，存储故障为 xcoord.ErrStoreUnavailable，
// factory 的错误以 %w 包装返回。失败不会写入任何一级。
func (c *Cache[T]) Load(ctx context.Context, key string, factory xcache.Factory[T], p xcache.Policy[T]) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if factory == nil {
		return zero, ErrNilFactory
	}
	v, err := c.local.LoadWithTTL(ctx, key, func(ctx context.Context) (T, time.Duration, error) {
		return c.fill(ctx, key, factory, p)
	}, p)
	if errors.Is(err, xcache.ErrClosed) {
		return zero, fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return v, err
}

// GetOrCreate 是 Load 使用固定 TTL 的便捷形式。
func (c *Cache[T]) GetOrCreate(ctx context.Context, key string, factory xcache.Factory[T], ttl time.Duration) (T, error) {
	return c.Load(ctx, key, factory, xcache.Fixed[T](ttl))
}

// GetOrCreateFunc 是 Load 按值计算 TTL 的便捷形式。
func (c *Cache[T]) GetOrCreateFunc(ctx context.Context, key string, factory xcache.Factory[T], ttlFn func(T) time.Duration) (T, error) {
	if ttlFn == nil {
		var zero T
		return zero, fmt.Errorf("%w: ttl function is nil", ErrInvalidConfig)
	}
	return c.Load(ctx, key, factory, xcache.FromValue(ttlFn))
}

// fill 在租约保护下读取分布式存储，未命中时回源并写入。
// 返回的 TTL 用于本地层：xcache.Uncached 表示不在本地保留。
func (c *Cache[T]) fill(ctx context.Context, key string, factory xcache.Factory[T], p xcache.Policy[T]) (T, time.Duration, error) {
	var zero T
	lease, err := c.coord.AcquireLease(ctx, key, c.opts.leaseTimeout)
	if err != nil {
		return zero, 0, fmt.Errorf("xtwolayer: lease %q: %w", key, err)
	}
	defer c.release(lease)

	v, ttl, found, err := c.readRemote(ctx, key, p)
	if err != nil {
		return zero, 0, err
	}
	if found {
		c.count(ctx, xmetrics.EventRemoteHit)
		return v, ttl, nil
	}
	c.count(ctx, xmetrics.EventRemoteMiss)

	v, err = factory(ctx)
	if err != nil {
		return zero, 0, fmt.Errorf("xtwolayer: factory %q: %w", key, err)
	}
	d, err := p.TTLFor(v)
	if err != nil {
		return zero, 0, err
	}
	ttl = c.remoteTTL(d)

	data, err := c.codec.Marshal(v)
	if err != nil {
		return zero, 0, fmt.Errorf("%w: encode %q: %w", ErrCodec, key, err)
	}
	if err := c.coord.Set(ctx, key, data, ttl); err != nil {
		return zero, 0, fmt.Errorf("xtwolayer: write %q: %w", key, err)
	}
	c.announce(ctx, key)
	return v, ttl, nil
}

// readRemote 读取分布式值和剩余 TTL。
// 解码失败或命中无效哨兵视为未命中，由调用方覆盖写入。
func (c *Cache[T]) readRemote(ctx context.Context, key string, p xcache.Policy[T]) (T, time.Duration, bool, error) {
	var zero T
	data, ok, err := c.coord.Get(ctx, key)
	if err != nil {
		return zero, 0, false, fmt.Errorf("xtwolayer: read %q: %w", key, err)
	}
	if !ok {
		return zero, 0, false, nil
	}
	v, err := c.codec.Unmarshal(data)
	if err != nil {
		c.logger.Warn("xtwolayer: discarding undecodable value", slog.String("key", key), slog.Any("error", err))
		return zero, 0, false, nil
	}
	if p.Invalid(v) || c.local.Invalid(v) {
		c.count(ctx, xmetrics.EventStale)
		return zero, 0, false, nil
	}

	remaining, ok, err := c.coord.RemainingTTL(ctx, key)
	if err != nil {
		return zero, 0, false, fmt.Errorf("xtwolayer: ttl %q: %w", key, err)
	}
	switch {
	case !ok:
		// Get 与 TTL 查询之间 key 已过期：交付但不在本地保留。
		return v, xcache.Uncached, true, nil
	case remaining == xcoord.NoExpiration:
		return v, 0, true, nil
	default:
		return v, remaining, true, nil
	}
}

// remoteTTL 把策略 TTL 解析为分布式 TTL：0 使用默认值，负值表示永不过期。
func (c *Cache[T]) remoteTTL(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return c.opts.defaultTTL
	case d < 0:
		return xcoord.NoExpiration
	default:
		return d
	}
}

// announce 先记录 ChangeLog 再发布通知。发布失败只记录日志。
func (c *Cache[T]) announce(ctx context.Context, key string) {
	if !c.opts.notifications {
		return
	}
	c.changes.Record(key)
	if err := c.coord.Publish(ctx, c.opts.channel, key); err != nil {
		c.changes.Consume(key)
		c.logger.Warn("xtwolayer: publish invalidation failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	c.count(ctx, xmetrics.EventPublish)
}

func (c *Cache[T]) release(lease xdlock.Lease) {
	if err := lease.Release(context.Background()); err != nil {
		c.logger.Warn("xtwolayer: lease release failed", slog.String("key", lease.Key()), slog.Any("error", err))
	}
}

// Get 非阻塞地读取本地层中已完成且有效的值，不访问分布式存储。
func (c *Cache[T]) Get(key string) (T, bool) {
	return c.local.Get(key)
}

// Delete 删除本地条目。开启 WithPropagateDelete 时同时删除分布式 key 并通知其他实例。
func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	if !c.opts.propagateDelete {
		return nil
	}
	if err := c.coord.Delete(ctx, key); err != nil {
		return fmt.Errorf("xtwolayer: delete %q: %w", key, err)
	}
	c.announce(ctx, key)
	return nil
}

// Close 停止订阅 goroutine 并释放本地层。不会关闭 Coordinator。
func (c *Cache[T]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	if c.cancel != nil {
		c.cancel()
		if err := c.sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xtwolayer: close subscription: %w", err))
		}
		c.wg.Wait()
		c.changes.Close()
	}
	if err := c.local.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Cache[T]) count(ctx context.Context, event xmetrics.Event) {
	xmetrics.Count(ctx, c.opts.observer, component, event)
}

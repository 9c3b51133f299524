package xcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/omeyang/xonce/pkg/observability/xmetrics"
	"github.com/omeyang/xonce/pkg/util/xfuture"
	"github.com/omeyang/xonce/pkg/util/xkeylock"
)

const component = "xcache"

// Factory 是回源函数。ctx 保留调用方的 Value，但不会因调用方取消而取消。
type Factory[T any] func(ctx context.Context) (T, error)

// TTLFactory 是同时返回值和 TTL 的回源函数，供组合使用（如两级缓存）。
// 返回的 TTL 语义与 Fixed 相同，另外支持 Uncached。
type TTLFactory[T any] func(ctx context.Context) (T, time.Duration, error)

// Cache 是单飞本地缓存。
type Cache[T any] struct {
	store      Store[*xfuture.Future[T]]
	locker     xkeylock.Locker
	ownsStore  bool
	ownsLocker bool

	opts    *options
	invalid func(T) bool
	logger  *slog.Logger

	closed atomic.Bool
}

// New 使用默认的 TTLStore 创建缓存。
func New[T any](opts ...Option) (*Cache[T], error) {
	o, invalid, err := buildOptions[T](opts)
	if err != nil {
		return nil, err
	}
	c, err := assemble(NewTTLStore[*xfuture.Future[T]](), o, invalid)
	if err != nil {
		return nil, err
	}
	c.ownsStore = true
	return c, nil
}

// NewWithStore 使用调用方提供的存储创建缓存。
// 存储的生命周期由调用方管理，Cache.Close 不会关闭它。
func NewWithStore[T any](store Store[*xfuture.Future[T]], opts ...Option) (*Cache[T], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	o, invalid, err := buildOptions[T](opts)
	if err != nil {
		return nil, err
	}
	return assemble(store, o, invalid)
}

func buildOptions[T any](opts []Option) (*options, func(T) bool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, nil, err
	}

	var invalid func(T) bool
	if o.invalid != nil {
		pred, ok := o.invalid.(func(T) bool)
		if !ok {
			return nil, nil, fmt.Errorf("%w: invalid predicate has type %T", ErrInvalidConfig, o.invalid)
		}
		invalid = pred
	}
	return o, invalid, nil
}

func assemble[T any](store Store[*xfuture.Future[T]], o *options, invalid func(T) bool) (*Cache[T], error) {
	c := &Cache[T]{
		store:   store,
		opts:    o,
		invalid: invalid,
		logger:  o.logger,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	switch {
	case o.locker != nil:
		c.locker = o.locker
	case o.globalLock:
		c.locker = xkeylock.NewGlobal()
		c.ownsLocker = true
	default:
		l, err := xkeylock.New()
		if err != nil {
			return nil, fmt.Errorf("xcache: create locker: %w", err)
		}
		c.locker = l
		c.ownsLocker = true
	}
	return c, nil
}

// Load 返回 key 对应的值，未命中时调用 factory 回源。
// 同一 key 的并发调用只会执行一次 factory。
// factory 的错误原样返回给所有共享该计算的调用方，失败结果不会被缓存。
func (c *Cache[T]) Load(ctx context.Context, key string, factory Factory[T], p Policy[T]) (T, error) {
	f, err := c.LoadAsync(ctx, key, factory, p)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Await(ctx)
}

// LoadAsync 与 Load 的安装过程相同，但不等待结果，直接返回共享句柄。
// 返回的句柄已启动。
func (c *Cache[T]) LoadAsync(ctx context.Context, key string, factory Factory[T], p Policy[T]) (*xfuture.Future[T], error) {
	if err := c.check(ctx, key); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, ErrNilFactory
	}
	pl, err := c.plan(p)
	if err != nil {
		return nil, err
	}
	f, err := c.obtain(ctx, key, pl, c.instrument(key, factory))
	if err != nil {
		return nil, err
	}
	f.Start()
	return f, nil
}

// GetOrCreate 是 Load 使用固定 TTL 的便捷形式。
func (c *Cache[T]) GetOrCreate(ctx context.Context, key string, factory Factory[T], ttl time.Duration) (T, error) {
	return c.Load(ctx, key, factory, Fixed[T](ttl))
}

// LoadWithTTL 是供组合使用的底层入口：fn 同时返回值和要写入的 TTL。
// p 只提供计算进行中条目的临时 TTL 和无效哨兵判定，完成后条目按 fn 返回的 TTL 重写。
// fn 返回 Uncached 时，结果只交付给等待者，条目随即移除。
func (c *Cache[T]) LoadWithTTL(ctx context.Context, key string, fn TTLFactory[T], p Policy[T]) (T, error) {
	var zero T
	if err := c.check(ctx, key); err != nil {
		return zero, err
	}
	if fn == nil {
		return zero, ErrNilFactory
	}
	pl, err := c.plan(p)
	if err != nil {
		return zero, err
	}

	// ttl 由 runner 写入，并在同一 goroutine 的完成回调中读取。
	var ttl time.Duration
	pl.restamp = func(T) time.Duration { return ttl }
	factory := func(ctx context.Context) (T, error) {
		v, d, err := fn(ctx)
		ttl = d
		return v, err
	}

	f, err := c.obtain(ctx, key, pl, c.instrument(key, factory))
	if err != nil {
		return zero, err
	}
	return f.Await(ctx)
}

// Get 非阻塞地读取已完成且有效的值。
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c.closed.Load() || key == "" {
		return zero, false
	}
	f, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	v, err, done := f.Result()
	if !done || err != nil || (c.invalid != nil && c.invalid(v)) {
		return zero, false
	}
	return v, true
}

// Invalid 报告 v 是否命中缓存级无效哨兵（WithInvalid）。
func (c *Cache[T]) Invalid(v T) bool {
	return c.invalid != nil && c.invalid(v)
}

// Set 直接写入一个已完成的值，覆盖进行中的计算。ttl 语义与 Fixed 相同。
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if err := c.check(ctx, key); err != nil {
		return err
	}
	h, err := c.locker.Acquire(ctx, key)
	if err != nil {
		return c.lockErr(key, err)
	}
	defer c.unlock(h)

	c.store.Set(key, xfuture.Resolved(value), c.resolveTTL(ttl))
	return nil
}

// Delete 移除 key 对应的条目。进行中的计算继续为已有等待者交付结果。
func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	if err := c.check(ctx, key); err != nil {
		return err
	}
	h, err := c.locker.Acquire(ctx, key)
	if err != nil {
		return c.lockErr(key, err)
	}
	defer c.unlock(h)

	c.store.Delete(key)
	return nil
}

// Close 释放缓存自己创建的存储和锁注册表。
// 进行中的计算仍会完成并交付给等待者。
func (c *Cache[T]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	var errs []error
	if c.ownsLocker {
		if err := c.locker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xcache: close locker: %w", err))
		}
	}
	if c.ownsStore {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("xcache: close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Cache[T]) check(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if key == "" {
		return ErrEmptyKey
	}
	if c.closed.Load() {
		return ErrClosed
	}
	return nil
}

// probeState 描述一次存储探测的结果。
type probeState int

const (
	probeAbsent probeState = iota
	probeInFlight
	probeHit
	probeStale
	probeFaulted
)

func (c *Cache[T]) probe(key string, invalid func(T) bool) (*xfuture.Future[T], probeState) {
	f, ok := c.store.Get(key)
	if !ok || f == nil {
		return nil, probeAbsent
	}
	v, err, done := f.Result()
	switch {
	case !done:
		return f, probeInFlight
	case err != nil:
		if c.opts.faultedAsInvalid {
			return f, probeFaulted
		}
		return f, probeHit
	case invalid != nil && invalid(v):
		return f, probeStale
	default:
		return f, probeHit
	}
}

// adoptable 报告探测结果是否可以直接复用。
func adoptable(s probeState) bool {
	return s == probeHit || s == probeInFlight
}

// obtain 实现探测、加锁、再探测、安装的流程，返回共享句柄。
// 锁只保护安装过程，返回前已释放。
func (c *Cache[T]) obtain(ctx context.Context, key string, pl plan[T], fn xfuture.Func[T]) (*xfuture.Future[T], error) {
	if f, state := c.probe(key, pl.invalid); adoptable(state) {
		c.countProbe(ctx, state)
		return f, nil
	}

	h, err := c.locker.Acquire(ctx, key)
	if err != nil {
		return nil, c.lockErr(key, err)
	}
	defer c.unlock(h)

	f, state := c.probe(key, pl.invalid)
	if adoptable(state) {
		c.countProbe(ctx, state)
		return f, nil
	}
	if state == probeStale {
		c.count(ctx, xmetrics.EventStale)
		c.logger.Debug("xcache: replacing invalid value", slog.String("key", key))
	}

	f = xfuture.NewWithContext(ctx, fn)
	f.OnComplete(func(v T, err error) {
		c.settle(key, f, pl, v, err)
	})
	c.store.Set(key, f, pl.ttl)
	c.count(ctx, xmetrics.EventMiss)
	return f, nil
}

// settle 由 runner 在结果发布前调用：失败时移除句柄，按需重写 TTL。
func (c *Cache[T]) settle(key string, f *xfuture.Future[T], pl plan[T], v T, err error) {
	switch {
	case err != nil:
		if c.replaceIfCurrent(key, f, func() { c.store.Delete(key) }) {
			c.count(context.Background(), xmetrics.EventEvict)
			c.logger.Debug("xcache: evicted failed computation", slog.String("key", key), slog.Any("error", err))
		}
	case pl.restamp != nil:
		d := pl.restamp(v)
		if d == Uncached {
			c.replaceIfCurrent(key, f, func() { c.store.Delete(key) })
			return
		}
		ttl := c.resolveTTL(d)
		ok := c.replaceIfCurrent(key, f, func() {
			if c.opts.restamp == RestampReplace {
				c.store.Set(key, xfuture.Resolved(v), ttl)
				return
			}
			c.store.Set(key, f, ttl)
		})
		if ok {
			c.count(context.Background(), xmetrics.EventRestamp)
		} else {
			c.logger.Warn("xcache: restamp skipped, entry replaced or expired", slog.String("key", key))
		}
	}
}

// replaceIfCurrent 在 key 锁内确认存储仍持有 f 后执行 apply。
func (c *Cache[T]) replaceIfCurrent(key string, f *xfuture.Future[T], apply func()) bool {
	h, err := c.locker.Acquire(context.Background(), key)
	if err != nil {
		// 注册表已关闭，退化为无锁的比较后操作。
		c.logger.Warn("xcache: settle without key lock", slog.String("key", key), slog.Any("error", err))
	} else {
		defer c.unlock(h)
	}

	cur, ok := c.store.Get(key)
	if !ok || cur != f {
		return false
	}
	apply()
	return true
}

func (c *Cache[T]) instrument(key string, factory Factory[T]) xfuture.Func[T] {
	return func(ctx context.Context) (v T, err error) {
		ctx, span := xmetrics.Start(ctx, c.opts.observer, xmetrics.SpanOptions{
			Component: component,
			Operation: "factory",
			Attrs:     []xmetrics.Attr{xmetrics.Key(key)},
		})
		defer func() { span.End(xmetrics.Result{Err: err}) }()
		return factory(ctx)
	}
}

func (c *Cache[T]) unlock(h xkeylock.Handle) {
	if err := h.Unlock(); err != nil {
		c.logger.Warn("xcache: unlock failed", slog.String("key", h.Key()), slog.Any("error", err))
	}
}

func (c *Cache[T]) lockErr(key string, err error) error {
	if errors.Is(err, xkeylock.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return fmt.Errorf("xcache: lock %q: %w", key, err)
}

func (c *Cache[T]) countProbe(ctx context.Context, s probeState) {
	if s == probeInFlight {
		c.count(ctx, xmetrics.EventJoin)
		return
	}
	c.count(ctx, xmetrics.EventHit)
}

func (c *Cache[T]) count(ctx context.Context, event xmetrics.Event) {
	xmetrics.Count(ctx, c.opts.observer, component, event)
}

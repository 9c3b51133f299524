package xtwolayer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/xonce/pkg/observability/xmetrics"
	"github.com/omeyang/xonce/pkg/storage/xcache"
)

const (
	// DefaultChannel 是失效通知的默认频道。
	DefaultChannel = "xonce:invalidation"

	// DefaultTTL 是策略 TTL 为 0 时分布式存储使用的过期时间。
	DefaultTTL = 24 * time.Hour

	// DefaultLeaseTimeout 是等待分布式租约的默认时间。
	DefaultLeaseTimeout = 20 * time.Second
)

type options struct {
	channel         string
	notifications   bool
	propagateDelete bool
	defaultTTL      time.Duration
	leaseTimeout    time.Duration
	changeLogSize   int
	changeLogTTL    time.Duration
	codec           any // Codec[T]，在 New 中做类型检查
	localOptions    []xcache.Option
	logger          *slog.Logger
	observer        xmetrics.Observer
}

// Option 定义 Cache 的配置选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		channel:       DefaultChannel,
		notifications: true,
		defaultTTL:    DefaultTTL,
		leaseTimeout:  DefaultLeaseTimeout,
		changeLogSize: DefaultChangeLogSize,
		changeLogTTL:  DefaultChangeLogTTL,
		logger:        slog.Default(),
		observer:      xmetrics.NoopObserver{},
	}
}

func (o *options) validate() error {
	if o.notifications && o.channel == "" {
		return fmt.Errorf("%w: channel must not be empty", ErrInvalidConfig)
	}
	if o.defaultTTL <= 0 {
		return fmt.Errorf("%w: default ttl must be positive, got %s", ErrInvalidConfig, o.defaultTTL)
	}
	if o.leaseTimeout <= 0 {
		return fmt.Errorf("%w: lease timeout must be positive, got %s", ErrInvalidConfig, o.leaseTimeout)
	}
	if o.changeLogSize <= 0 || o.changeLogTTL <= 0 {
		return fmt.Errorf("%w: changelog size and ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithChannel 设置失效通知频道，默认 "xonce:invalidation"。
func WithChannel(name string) Option {
	return func(o *options) {
		o.channel = name
	}
}

// WithNotifications 决定是否发布和订阅失效通知，默认开启。
// 关闭后各实例的本地层只依赖 TTL 过期。
func WithNotifications(enabled bool) Option {
	return func(o *options) {
		o.notifications = enabled
	}
}

// WithPropagateDelete 决定 Delete 是否同时删除分布式 key 并通知其他实例，默认关闭。
func WithPropagateDelete(enabled bool) Option {
	return func(o *options) {
		o.propagateDelete = enabled
	}
}

// WithDefaultTTL 设置策略 TTL 为 0 时分布式存储使用的过期时间，默认 24h。
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithLeaseTimeout 设置等待分布式租约的最长时间，默认 20s。
func WithLeaseTimeout(d time.Duration) Option {
	return func(o *options) {
		o.leaseTimeout = d
	}
}

// WithChangeLog 设置 ChangeLog 的容量和条目存活时间。
func WithChangeLog(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.changeLogSize = size
		o.changeLogTTL = ttl
	}
}

// WithCodec 设置值的编解码器，默认 JSONCodec。
func WithCodec[T any](c Codec[T]) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLocalOptions 追加本地层 xcache.Cache 的选项。
// 日志和观测器默认与两级缓存一致，可在此覆盖。
func WithLocalOptions(opts ...xcache.Option) Option {
	return func(o *options) {
		o.localOptions = append(o.localOptions, opts...)
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()，nil 表示不输出。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver 设置观测器。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

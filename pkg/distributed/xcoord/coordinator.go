package xcoord

import (
	"context"
	"log/slog"
	"time"

	"github.com/omeyang/xonce/pkg/distributed/xdlock"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

// NoExpiration 表示 key 没有过期时间。
// RemainingTTL 对永不过期的 key 返回该值；Set 传入非正 TTL 时写入永不过期的 key。
const NoExpiration time.Duration = -1

// DefaultLeaseTTL 是租约的默认过期时间，同时作为默认等待时间。
const DefaultLeaseTTL = 20 * time.Second

// Coordinator 定义两级缓存使用的分布式原语。
type Coordinator interface {
	// Get 读取 key 的值。key 不存在时 ok 为 false，err 为 nil。
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set 写入 key 的值。ttl <= 0 时不设置过期时间。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// RemainingTTL 返回 key 的剩余存活时间。
	// key 不存在时 ok 为 false；key 永不过期时返回 NoExpiration。
	RemainingTTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// Delete 删除 key，key 不存在不是错误。
	Delete(ctx context.Context, key string) error

	// AcquireLease 获取 key 的租约，最多等待 wait。
	// 超时返回 ErrLeaseTimeout。调用方负责 Release。
	AcquireLease(ctx context.Context, key string, wait time.Duration) (xdlock.Lease, error)

	// Publish 向 channel 发布消息（通常是 key）。
	Publish(ctx context.Context, channel, message string) error

	// Subscribe 订阅 channel，返回前已收到服务端确认。
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	// Close 关闭 Coordinator，不关闭调用方传入的客户端。
	Close() error
}

// Subscription 是一个频道订阅。
type Subscription interface {
	// Messages 返回消息通道，订阅关闭后通道关闭。
	Messages() <-chan string
	// Close 取消订阅并等待内部 goroutine 退出。可重复调用。
	Close() error
}

type options struct {
	keyPrefix string
	leaseTTL  time.Duration
	leaser    xdlock.Leaser

	breakerFailures uint32
	breakerCooldown time.Duration

	logger   *slog.Logger
	observer xmetrics.Observer
}

// Option 定义 Coordinator 的配置选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		leaseTTL: DefaultLeaseTTL,
		logger:   slog.Default(),
		observer: xmetrics.NoopObserver{},
	}
}

// WithKeyPrefix 为所有数据 key 和租约 key 添加前缀。
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithLeaseTTL 设置租约过期时间，默认 20s。非正值忽略。
// 租约不续期，持有者的工作应在该时间内完成。
func WithLeaseTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.leaseTTL = d
		}
	}
}

// WithLeaser 替换默认的 SET NX 租约实现（例如 xdlock.NewRedsyncLeaser）。
// 传入的 Leaser 由调用方关闭。
func WithLeaser(l xdlock.Leaser) Option {
	return func(o *options) {
		o.leaser = l
	}
}

// WithBreaker 启用熔断器：连续失败 failures 次后打开，cooldown 后进入半开。
// failures 为 0 时不启用。cooldown 非正时使用 gobreaker 默认值（60s）。
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(o *options) {
		o.breakerFailures = failures
		o.breakerCooldown = cooldown
	}
}

// WithLogger 设置日志记录器，默认 slog.Default()，nil 表示不输出。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver 设置观测器，每次 Redis 调用产生一个 Client 跨度。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

package xcache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/xonce/pkg/observability/xmetrics"
	"github.com/omeyang/xonce/pkg/util/xkeylock"
)

const (
	// DefaultTTL 是 ttl 为 0 时使用的默认过期时间。
	DefaultTTL = time.Hour

	// DefaultProvisionalTTL 是 FromValue 策略在计算完成前使用的临时 TTL。
	DefaultProvisionalTTL = time.Hour
)

// RestampMode 决定 FromValue 策略在计算完成后如何重写 TTL。
type RestampMode int

const (
	// RestampInPlace 以新 TTL 重新写入同一个句柄。
	RestampInPlace RestampMode = iota
	// RestampReplace 以新 TTL 写入一个已完成的新句柄，替换计算句柄。
	RestampReplace
)

// String 返回 RestampMode 的可读名称。
func (m RestampMode) String() string {
	switch m {
	case RestampInPlace:
		return "in_place"
	case RestampReplace:
		return "replace"
	default:
		return fmt.Sprintf("RestampMode(%d)", int(m))
	}
}

type options struct {
	locker           xkeylock.Locker
	globalLock       bool
	defaultTTL       time.Duration
	provisionalTTL   time.Duration
	invalid          any // func(T) bool，在 New 中做类型检查
	faultedAsInvalid bool
	restamp          RestampMode
	logger           *slog.Logger
	observer         xmetrics.Observer
}

// Option 定义 Cache 的配置选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		defaultTTL:       DefaultTTL,
		provisionalTTL:   DefaultProvisionalTTL,
		faultedAsInvalid: true,
		restamp:          RestampInPlace,
		logger:           slog.Default(),
		observer:         xmetrics.NoopObserver{},
	}
}

func (o *options) validate() error {
	if o.defaultTTL <= 0 && o.defaultTTL != NoExpiration {
		return fmt.Errorf("%w: default ttl must be positive or NoExpiration, got %s", ErrInvalidConfig, o.defaultTTL)
	}
	if o.provisionalTTL <= 0 {
		return fmt.Errorf("%w: provisional ttl must be positive, got %s", ErrInvalidConfig, o.provisionalTTL)
	}
	if o.locker != nil && o.globalLock {
		return fmt.Errorf("%w: WithLocker and WithGlobalLock are mutually exclusive", ErrInvalidConfig)
	}
	if o.restamp != RestampInPlace && o.restamp != RestampReplace {
		return fmt.Errorf("%w: unknown restamp mode %s", ErrInvalidConfig, o.restamp)
	}
	return nil
}

// WithLocker 使用外部的 key 锁注册表。多个 Cache 可以共享同一个注册表。
// 外部注册表的生命周期由调用方管理，Cache.Close 不会关闭它。
func WithLocker(l xkeylock.Locker) Option {
	return func(o *options) {
		o.locker = l
	}
}

// WithGlobalLock 使用单一全局锁代替按 key 加锁。
// 所有 key 的安装过程串行，实现简单但扩展性较差。
func WithGlobalLock() Option {
	return func(o *options) {
		o.globalLock = true
	}
}

// WithDefaultTTL 设置 ttl 为 0 时使用的默认过期时间。
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithProvisionalTTL 设置 FromValue 策略在计算完成前使用的临时 TTL。
func WithProvisionalTTL(d time.Duration) Option {
	return func(o *options) {
		o.provisionalTTL = d
	}
}

// WithInvalid 设置缓存级的无效哨兵判定，与每次调用的 Policy.WithInvalid 取并集。
// pred 的参数类型必须与 Cache 的值类型一致，否则 New 返回 ErrInvalidConfig。
func WithInvalid[T any](pred func(T) bool) Option {
	return func(o *options) {
		if pred != nil {
			o.invalid = pred
		}
	}
}

// WithFaultedAsInvalid 决定存储中已失败的句柄是否视为未命中。默认为 true。
// 为 false 时，失败句柄在被 runner 清理前会把同一个错误返回给新的调用方。
func WithFaultedAsInvalid(enabled bool) Option {
	return func(o *options) {
		o.faultedAsInvalid = enabled
	}
}

// WithRestamp 设置 FromValue 策略的 TTL 重写方式。默认为 RestampInPlace。
func WithRestamp(mode RestampMode) Option {
	return func(o *options) {
		o.restamp = mode
	}
}

// WithLogger 设置日志记录器。默认为 slog.Default()，传入 nil 禁用日志。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver 设置观测器，用于记录缓存事件和回源耗时。nil 时忽略。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

package xdlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/google/uuid"
)

const (
	// DefaultKeyPrefix 是租约 key 的默认前缀。
	DefaultKeyPrefix = "lock:"

	// releaseTimeout 是调用方 ctx 已取消时释放租约使用的独立超时。
	releaseTimeout = 5 * time.Second

	defaultPollDelay    = 10 * time.Millisecond
	defaultMaxPollDelay = 200 * time.Millisecond
)

// Lease 表示一次成功获取的租约。
type Lease interface {
	// Key 返回完整的租约 key（包含前缀）。
	Key() string
	// Token 返回本次获取的唯一 owner token。
	Token() string
	// Release 释放租约。只会删除 token 匹配的租约。
	// 租约已过期或被他人取得时返回 ErrLeaseLost。多次调用返回 ErrLeaseLost。
	Release(ctx context.Context) error
}

// Leaser 在分布式存储上获取租约。
type Leaser interface {
	// Acquire 获取 key 的租约，租约在 ttl 后自动过期。
	// 租约被占用时在 wait 内以退避轮询重试；wait <= 0 只尝试一次。
	// 等待超时返回 ErrLeaseTimeout，ctx 取消返回 ctx.Err()。
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Lease, error)
	// Close 关闭 Leaser，不会关闭调用方传入的 Redis 客户端。
	Close() error
}

type options struct {
	keyPrefix    string
	pollDelay    time.Duration
	maxPollDelay time.Duration
	tokenFunc    func() string
}

// Option 定义 Leaser 的配置选项。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		keyPrefix:    DefaultKeyPrefix,
		pollDelay:    defaultPollDelay,
		maxPollDelay: defaultMaxPollDelay,
		tokenFunc:    uuid.NewString,
	}
}

// WithKeyPrefix 设置租约 key 前缀。允许设为空字符串。
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithPollDelay 设置轮询的初始间隔和最大间隔，非正值忽略。
func WithPollDelay(initial, maxDelay time.Duration) Option {
	return func(o *options) {
		if initial > 0 {
			o.pollDelay = initial
		}
		if maxDelay > 0 {
			o.maxPollDelay = maxDelay
		}
	}
}

// WithTokenFunc 设置 owner token 生成函数，默认为 uuid.NewString。
func WithTokenFunc(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.tokenFunc = fn
		}
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.maxPollDelay < o.pollDelay {
		o.maxPollDelay = o.pollDelay
	}
	return o
}

func validate(ctx context.Context, key string, ttl time.Duration) error {
	if ctx == nil {
		return ErrNilContext
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

// poll 在 wait 内重复调用 try，直到成功、遇到非 ErrLeaseHeld 错误或等待超时。
func poll(ctx context.Context, o *options, wait time.Duration, try func(context.Context) (Lease, error)) (Lease, error) {
	if wait <= 0 {
		lease, err := try(ctx)
		if errors.Is(err, ErrLeaseHeld) {
			return nil, fmt.Errorf("%w: %w", ErrLeaseTimeout, err)
		}
		return lease, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	lease, err := retry.NewWithData[Lease](
		retry.Context(waitCtx),
		retry.Attempts(0),
		retry.Delay(o.pollDelay),
		retry.MaxDelay(o.maxPollDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, ErrLeaseHeld) }),
	).Do(func() (Lease, error) {
		return try(waitCtx)
	})
	if err == nil {
		return lease, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if waitCtx.Err() != nil || errors.Is(err, ErrLeaseHeld) {
		return nil, fmt.Errorf("%w after %s", ErrLeaseTimeout, wait)
	}
	return nil, err
}

// releaseContext 在调用方 ctx 已取消时返回独立的清理 context。
func releaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
}

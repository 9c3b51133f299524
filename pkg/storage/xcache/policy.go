package xcache

import (
	"fmt"
	"time"
)

// Uncached 作为 LoadWithTTL 回源函数返回的 TTL 时，
// 结果只交付给当前等待者，不在本地保留。
const Uncached time.Duration = -1 << 63

// Policy 描述一次加载的 TTL 策略和无效哨兵。零值等价于 Fixed(0)。
type Policy[T any] struct {
	ttl       time.Duration
	until     time.Time
	fromValue func(T) time.Duration
	invalid   func(T) bool
}

// Fixed 返回固定 TTL 策略。d 为 0 时使用缓存默认 TTL，d < 0 表示永不过期。
func Fixed[T any](d time.Duration) Policy[T] {
	return Policy[T]{ttl: d}
}

// Until 返回绝对过期时间策略。t 必须晚于加载时刻。
func Until[T any](t time.Time) Policy[T] {
	return Policy[T]{until: t}
}

// FromValue 返回按值计算 TTL 的策略。
// 计算完成前条目使用临时 TTL（WithProvisionalTTL），完成后按 fn 的结果重写。
func FromValue[T any](fn func(T) time.Duration) Policy[T] {
	return Policy[T]{fromValue: fn}
}

// WithInvalid 返回附加了无效哨兵判定的策略副本。
func (p Policy[T]) WithInvalid(pred func(T) bool) Policy[T] {
	p.invalid = pred
	return p
}

// TTLFor 返回值 v 此刻对应的 TTL，语义与 Fixed 相同：0 由使用方决定默认值，负值表示永不过期。
// Until 策略的截止时间已过时返回 ErrInvalidTTL。
func (p Policy[T]) TTLFor(v T) (time.Duration, error) {
	switch {
	case p.fromValue != nil:
		return p.fromValue(v), nil
	case !p.until.IsZero():
		d := time.Until(p.until)
		if d <= 0 {
			return 0, fmt.Errorf("%w: deadline %s already passed", ErrInvalidTTL, p.until.Format(time.RFC3339Nano))
		}
		return d, nil
	default:
		return p.ttl, nil
	}
}

// Invalid 报告 v 是否命中策略自身的无效哨兵（不含缓存级 WithInvalid）。
func (p Policy[T]) Invalid(v T) bool {
	return p.invalid != nil && p.invalid(v)
}

// Equal 返回判定值等于 v 的哨兵函数。
func Equal[T comparable](v T) func(T) bool {
	return func(x T) bool { return x == v }
}

// plan 是解析后的一次加载计划。
type plan[T any] struct {
	ttl     time.Duration         // 安装时使用的 TTL
	restamp func(T) time.Duration // 非 nil 时完成后重写 TTL
	invalid func(T) bool
}

func (c *Cache[T]) plan(p Policy[T]) (plan[T], error) {
	pl := plan[T]{invalid: c.combineInvalid(p.invalid)}
	switch {
	case p.fromValue != nil:
		pl.ttl = c.opts.provisionalTTL
		pl.restamp = p.fromValue
	case !p.until.IsZero():
		d := time.Until(p.until)
		if d <= 0 {
			return pl, fmt.Errorf("%w: deadline %s already passed", ErrInvalidTTL, p.until.Format(time.RFC3339Nano))
		}
		pl.ttl = d
	default:
		pl.ttl = c.resolveTTL(p.ttl)
	}
	return pl, nil
}

// resolveTTL 将 0 解析为默认 TTL，负值解析为 NoExpiration。
func (c *Cache[T]) resolveTTL(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return c.opts.defaultTTL
	case d < 0:
		return NoExpiration
	default:
		return d
	}
}

func (c *Cache[T]) combineInvalid(call func(T) bool) func(T) bool {
	global := c.invalid
	switch {
	case global == nil:
		return call
	case call == nil:
		return global
	default:
		return func(v T) bool { return call(v) || global(v) }
	}
}

package xkeylock

import "fmt"

const (
	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// Option 配置 [New] 创建的分片 Locker。
type Option func(*options)

type options struct {
	maxKeys    int
	shardCount int
}

// newOptions 应用 opts 并校验，nil Option 被忽略。
func newOptions(opts []Option) (options, error) {
	o := options{shardCount: defaultShardCount}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if sc := o.shardCount; sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return o, fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return o, nil
}

// WithMaxKeys 限制注册表中同时存在的 key 数量（持有者或等待者）。
// 超限时新 key 的获取返回 [ErrMaxKeysExceeded]，已在注册表中的 key 不受影响。
// n <= 0 表示不限制（默认）。
func WithMaxKeys(n int) Option {
	return func(o *options) {
		o.maxKeys = max(n, 0)
	}
}

// WithShardCount 设置注册表分片数量，必须为 2 的幂且不超过 65536，默认 32。
// 分片越多，不同 key 在注册表上的争用越少。
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

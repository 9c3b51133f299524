package xcache

import "errors"

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xcache: nil context")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	ErrEmptyKey = errors.New("xcache: empty key")

	// ErrNilFactory 表示回源函数为 nil。
	ErrNilFactory = errors.New("xcache: nil factory")

	// ErrNilStore 表示传入的存储为 nil。
	ErrNilStore = errors.New("xcache: nil store")

	// ErrInvalidTTL 表示 TTL 配置无效，例如绝对过期时间已经过去。
	ErrInvalidTTL = errors.New("xcache: invalid ttl")

	// ErrInvalidConfig 表示配置参数无效。
	ErrInvalidConfig = errors.New("xcache: invalid configuration")

	// ErrClosed 表示缓存已关闭。
	ErrClosed = errors.New("xcache: cache closed")
)

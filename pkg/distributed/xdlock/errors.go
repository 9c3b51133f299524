package xdlock

import "errors"

// 预定义错误。使用 errors.Is 进行错误匹配。
var (
	// ErrLeaseTimeout 表示在等待时间内未能获取租约。
	ErrLeaseTimeout = errors.New("xdlock: lease wait timed out")

	// ErrLeaseHeld 表示租约被其他持有者占用。
	// Acquire 在等待期间会重试此错误，调用方通常不会直接看到它。
	ErrLeaseHeld = errors.New("xdlock: lease is held by another owner")

	// ErrLeaseLost 表示释放时租约已过期或被其他持有者取得。
	ErrLeaseLost = errors.New("xdlock: lease expired or stolen")

	// ErrNilClient 客户端为空。
	ErrNilClient = errors.New("xdlock: client is nil")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xdlock: nil context")

	// ErrEmptyKey 租约 key 为空。
	ErrEmptyKey = errors.New("xdlock: key must not be empty")

	// ErrInvalidTTL 租约 TTL 必须为正数。
	ErrInvalidTTL = errors.New("xdlock: lease ttl must be positive")

	// ErrClosed 表示 Leaser 已关闭。
	ErrClosed = errors.New("xdlock: leaser is closed")
)

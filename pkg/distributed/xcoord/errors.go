package xcoord

import (
	"errors"

	"github.com/omeyang/xonce/pkg/distributed/xdlock"
)

var (
	// ErrStoreUnavailable 表示分布式存储不可用（传输错误或熔断打开）。
	ErrStoreUnavailable = errors.New("xcoord: store unavailable")

	// ErrLeaseTimeout 表示在等待时间内未能获取租约。
	ErrLeaseTimeout = xdlock.ErrLeaseTimeout

	// ErrNilClient 客户端为空。
	ErrNilClient = errors.New("xcoord: client is nil")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xcoord: nil context")

	// ErrEmptyKey key 为空。
	ErrEmptyKey = errors.New("xcoord: key must not be empty")

	// ErrEmptyChannel 频道名为空。
	ErrEmptyChannel = errors.New("xcoord: channel must not be empty")

	// ErrClosed 表示 Coordinator 已关闭。
	ErrClosed = errors.New("xcoord: coordinator is closed")
)

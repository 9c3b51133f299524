package xtwolayer

import "errors"

var (
	// ErrNilCoordinator Coordinator 为空。
	ErrNilCoordinator = errors.New("xtwolayer: coordinator is nil")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xtwolayer: nil context")

	// ErrNilFactory 回源函数为空。
	ErrNilFactory = errors.New("xtwolayer: factory is nil")

	// ErrInvalidConfig 配置无效。
	ErrInvalidConfig = errors.New("xtwolayer: invalid config")

	// ErrCodec 表示值的编解码失败。
	ErrCodec = errors.New("xtwolayer: codec failure")

	// ErrClosed 表示缓存已关闭。
	ErrClosed = errors.New("xtwolayer: cache is closed")
)

package xfuture

import "errors"

var (
	// ErrPanicked 表示计算函数发生了 panic。
	// 实际错误会包装 panic 值，使用 errors.Is 判断。
	ErrPanicked = errors.New("xfuture: computation panicked")

	// ErrNilFunc 表示传入的计算函数为 nil。
	ErrNilFunc = errors.New("xfuture: nil function")
)

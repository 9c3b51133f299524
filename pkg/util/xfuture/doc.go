// Package xfuture 提供惰性启动、最多执行一次的共享计算句柄。
//
// Future 包装一个计算函数，首次 Start 或 Await 时由唯一的 runner goroutine
// 执行，结果（值或错误）对所有观察者共享。
//
// # 取消语义
//
// runner 使用脱离取消链的 context 执行计算，保留创建时 context 的 Value。
// 某个等待者取消自己的 ctx 只会停止它自己的等待，不会中止共享计算。
//
// # panic 处理
//
// 计算函数 panic 时，runner 将其转换为包装了 ErrPanicked 的错误，
// 所有观察者收到同一个失败结果，进程不会崩溃。
//
// # 完成回调
//
// OnComplete 注册的回调由 runner 在结果写入后、Done 通道关闭前依次执行。
// 因此 Await 返回时，所有在完成前注册的回调都已执行完毕。
// 完成后注册的回调在调用方 goroutine 中同步执行。
package xfuture

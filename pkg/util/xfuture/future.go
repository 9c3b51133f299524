package xfuture

import (
	"context"
	"fmt"
	"sync"
)

// Func 是 Future 执行的计算函数。
type Func[T any] func(ctx context.Context) (T, error)

// Future 是一个最多执行一次的共享计算。
//
// 零值不可用，请使用 New、NewWithContext、Resolved 或 Failed 创建。
type Future[T any] struct {
	fn   Func[T]
	base context.Context

	once sync.Once
	done chan struct{}

	// val 和 err 在 done 关闭前由 runner 写入。
	val T
	err error

	mu       sync.Mutex
	hooks    []func(T, error)
	finished bool // 回调已执行完毕，受 mu 保护
}

// New 创建一个尚未启动的 Future。
// fn 为 nil 时，Future 启动后以 ErrNilFunc 失败。
func New[T any](fn Func[T]) *Future[T] {
	return NewWithContext(context.Background(), fn)
}

// NewWithContext 创建一个尚未启动的 Future，runner 继承 ctx 的 Value 但不继承取消。
func NewWithContext[T any](ctx context.Context, fn Func[T]) *Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Future[T]{
		fn:   fn,
		base: context.WithoutCancel(ctx),
		done: make(chan struct{}),
	}
}

// Resolved 返回一个已成功完成的 Future。
func Resolved[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v, finished: true}
	f.once.Do(func() {})
	close(f.done)
	return f
}

// Failed 返回一个已失败完成的 Future。
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err, finished: true}
	f.once.Do(func() {})
	close(f.done)
	return f
}

// Start 启动 runner。多次调用只会启动一次。
func (f *Future[T]) Start() {
	f.once.Do(func() {
		go f.run()
	})
}

// Await 启动计算（如果尚未启动）并等待结果。
// ctx 取消时返回 ctx.Err()，共享计算继续运行。
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	// 已完成的结果优先于已取消的 ctx。
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	f.Start()

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done 返回在结果可用后关闭的通道。
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Completed 报告结果是否已可用。
func (f *Future[T]) Completed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result 非阻塞地读取结果。ok 为 false 表示尚未完成。
func (f *Future[T]) Result() (v T, err error, ok bool) { //nolint:revive // ok 放在最后便于与 map 读取保持一致
	if !f.Completed() {
		return v, nil, false
	}
	return f.val, f.err, true
}

// OnComplete 注册完成回调。
// 完成前注册的回调由 runner 在 Done 关闭前调用；完成后注册的回调立即同步调用。
func (f *Future[T]) OnComplete(fn func(T, error)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	if f.finished {
		f.mu.Unlock()
		fn(f.val, f.err)
		return
	}
	f.hooks = append(f.hooks, fn)
	f.mu.Unlock()
}

func (f *Future[T]) run() {
	f.val, f.err = f.call()

	// 回调可能继续注册新回调，循环直到清空。
	for {
		f.mu.Lock()
		hooks := f.hooks
		f.hooks = nil
		if len(hooks) == 0 {
			f.finished = true
			f.mu.Unlock()
			break
		}
		f.mu.Unlock()
		for _, h := range hooks {
			h(f.val, f.err)
		}
	}

	close(f.done)
}

func (f *Future[T]) call() (v T, err error) {
	if f.fn == nil {
		return v, ErrNilFunc
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return f.fn(f.base)
}

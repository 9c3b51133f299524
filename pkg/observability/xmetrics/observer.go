package xmetrics

import (
	"context"
	"strconv"
)

// Kind 表示观测跨度类型。
type Kind int

const (
	// KindInternal 表示内部操作。
	KindInternal Kind = iota
	// KindClient 表示客户端调用（如访问 Redis）。
	KindClient
	// KindProducer 表示消息发布。
	KindProducer
	// KindConsumer 表示消息消费。
	KindConsumer
)

// String 返回 Kind 的可读字符串表示，用于调试和日志输出。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindClient:
		return "Client"
	case KindProducer:
		return "Producer"
	case KindConsumer:
		return "Consumer"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 表示观测结果状态。
type Status string

const (
	// StatusOK 表示成功。
	StatusOK Status = "ok"
	// StatusError 表示失败。
	StatusError Status = "error"
)

// Event 表示一次缓存事件。
type Event string

// 缓存事件。
const (
	EventHit        Event = "hit"         // 本地命中已完成的值
	EventMiss       Event = "miss"        // 安装了新的计算
	EventJoin       Event = "join"        // 加入了进行中的计算
	EventStale      Event = "stale"       // 命中无效哨兵值，强制重算
	EventEvict      Event = "evict"       // 计算失败后清理条目
	EventRestamp    Event = "restamp"     // 计算完成后重写 TTL
	EventRemoteHit  Event = "remote_hit"  // 分布式存储命中
	EventRemoteMiss Event = "remote_miss" // 分布式存储未命中
	EventPublish    Event = "publish"     // 发布失效通知
	EventInvalidate Event = "invalidate"  // 收到他人通知并清理本地
	EventSelfEcho   Event = "self_echo"   // 收到自身写入的回声
)

// Attr 表示观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 定义观测跨度的创建参数。
type SpanOptions struct {
	// Component 标识组件名称。
	Component string
	// Operation 标识操作名称。
	Operation string
	// Kind 标识跨度类型。
	Kind Kind
	// Attrs 附加属性。
	Attrs []Attr
}

// Result 表示观测跨度结束时的结果。
type Result struct {
	// Status 表示操作状态；为空时根据 Err 推导。
	Status Status
	// Err 表示操作错误。
	Err error
	// Attrs 附加属性。
	Attrs []Attr
}

// Span 表示一次观测跨度。
type Span interface {
	// End 结束观测并记录结果。
	End(result Result)
}

// Observer 定义统一观测接口。
type Observer interface {
	// Start 开始一次观测跨度。
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
	// Count 记录一次组件事件。
	Count(ctx context.Context, component string, event Event, attrs ...Attr)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

// Start 返回 ctx 和空跨度。若 ctx 为 nil，返回 context.Background()。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// Count 空实现。
func (NoopObserver) Count(context.Context, string, Event, ...Attr) {}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

// End 空实现，不做任何处理。
func (NoopSpan) End(_ Result) {}

// Start 使用 observer 开始观测，nil observer 时返回空跨度。
// Start 保证返回非 nil 的 context.Context 和非 nil 的 Span。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}

// Count 使用 observer 记录事件，nil observer 时忽略。
func Count(ctx context.Context, observer Observer, component string, event Event, attrs ...Attr) {
	if observer == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	observer.Count(ctx, component, event, attrs...)
}

// Tagged 返回为每个跨度和事件追加 attrs 的 Observer，用于区分同一进程中的多个实例。
// attrs 为空时直接返回 observer。
func Tagged(observer Observer, attrs ...Attr) Observer {
	if observer == nil {
		observer = NoopObserver{}
	}
	if len(attrs) == 0 {
		return observer
	}
	return &taggedObserver{next: observer, attrs: attrs}
}

type taggedObserver struct {
	next  Observer
	attrs []Attr
}

func (t *taggedObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	opts.Attrs = t.merge(opts.Attrs)
	return Start(ctx, t.next, opts)
}

func (t *taggedObserver) Count(ctx context.Context, component string, event Event, attrs ...Attr) {
	Count(ctx, t.next, component, event, t.merge(attrs)...)
}

func (t *taggedObserver) merge(attrs []Attr) []Attr {
	out := make([]Attr, 0, len(t.attrs)+len(attrs))
	return append(append(out, t.attrs...), attrs...)
}

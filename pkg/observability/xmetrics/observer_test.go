package xmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInternal, "Internal"},
		{KindClient, "Client"},
		{KindProducer, "Producer"},
		{KindConsumer, "Consumer"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestStartNilObserver(t *testing.T) {
	ctx, span := Start(nil, nil, SpanOptions{}) //nolint:staticcheck // 测试 nil ctx 兜底
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	assert.NotPanics(t, func() { span.End(Result{}) })
}

func TestNoopObserver(t *testing.T) {
	var obs NoopObserver
	ctx, span := Start(context.Background(), obs, SpanOptions{Component: "xcache"})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)

	assert.NotPanics(t, func() {
		Count(context.Background(), obs, "xcache", EventHit)
		Count(nil, nil, "xcache", EventHit) //nolint:staticcheck // 测试 nil ctx 兜底
	})
}

type nilSpanObserver struct{ counted []Event }

func (nilSpanObserver) Start(context.Context, SpanOptions) (context.Context, Span) { return nil, nil }

func (o *nilSpanObserver) Count(_ context.Context, _ string, event Event, _ ...Attr) {
	o.counted = append(o.counted, event)
}

func TestStartGuardsNilReturns(t *testing.T) {
	obs := &nilSpanObserver{}
	ctx, span := Start(context.Background(), obs, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)

	Count(context.Background(), obs, "xtwolayer", EventPublish)
	assert.Equal(t, []Event{EventPublish}, obs.counted)
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: assert.AnError}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: assert.AnError}))
}

func TestAttrHelpers(t *testing.T) {
	assert.Equal(t, Attr{Key: AttrKey, Value: "user:1"}, Key("user:1"))
	assert.Equal(t, Attr{Key: AttrTarget, Value: "app:user:1"}, Target("app:user:1"))
	assert.Equal(t, Attr{Key: AttrTTL, Value: time.Minute}, TTL(time.Minute))
	assert.Equal(t, Attr{Key: "k", Value: "v"}, String("k", "v"))
}

type countingObserver struct {
	NoopObserver
	spans  [][]Attr
	counts [][]Attr
}

func (c *countingObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	c.spans = append(c.spans, opts.Attrs)
	return ctx, NoopSpan{}
}

func (c *countingObserver) Count(_ context.Context, _ string, _ Event, attrs ...Attr) {
	c.counts = append(c.counts, attrs)
}

func TestTagged(t *testing.T) {
	inner := &countingObserver{}
	obs := Tagged(inner, String("instance", "a"))

	_, span := obs.Start(context.Background(), SpanOptions{Component: "xcache", Attrs: []Attr{Key("k")}})
	require.NotNil(t, span)
	obs.Count(context.Background(), "xcache", EventHit)

	require.Len(t, inner.spans, 1)
	assert.Equal(t, []Attr{String("instance", "a"), Key("k")}, inner.spans[0])
	require.Len(t, inner.counts, 1)
	assert.Equal(t, []Attr{String("instance", "a")}, inner.counts[0])

	assert.Same(t, inner, Tagged(inner))
	assert.Equal(t, NoopObserver{}, Tagged(nil))
}

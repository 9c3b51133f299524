package xtwolayer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xonce/pkg/distributed/xcoord"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

func newTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

// newCoordinator 为每个实例创建独立的客户端，模拟不同进程。
func newCoordinator(t *testing.T, mr *miniredis.Miniredis) xcoord.Coordinator {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:         mr.Addr(),
		Protocol:     2,
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
		PoolSize:     16,
		MaxRetries:   0,
	})
	t.Cleanup(func() { _ = client.Close() })

	coord, err := xcoord.NewRedis(client, xcoord.WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })
	return coord
}

func newInstance[T any](t *testing.T, coord xcoord.Coordinator, opts ...Option) (*Cache[T], *eventRecorder) {
	t.Helper()
	rec := newEventRecorder()
	all := append([]Option{WithLogger(nil), WithObserver(rec)}, opts...)
	c, err := New[T](context.Background(), coord, all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, rec
}

// eventRecorder 记录组件事件次数。
type eventRecorder struct {
	xmetrics.NoopObserver
	mu     sync.Mutex
	counts map[string]int
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{counts: make(map[string]int)}
}

func (r *eventRecorder) Count(_ context.Context, component string, event xmetrics.Event, _ ...xmetrics.Attr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[component+"/"+string(event)]++
}

func (r *eventRecorder) get(event xmetrics.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[component+"/"+string(event)]
}

// countingCoordinator 统计分布式读写次数，可注入失败。
type countingCoordinator struct {
	xcoord.Coordinator
	gets    atomic.Int32
	sets    atomic.Int32
	setErr  error
	ttlGone bool
}

func (c *countingCoordinator) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets.Add(1)
	return c.Coordinator.Get(ctx, key)
}

func (c *countingCoordinator) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets.Add(1)
	if c.setErr != nil {
		return c.setErr
	}
	return c.Coordinator.Set(ctx, key, value, ttl)
}

func (c *countingCoordinator) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	if c.ttlGone {
		return 0, false, nil
	}
	return c.Coordinator.RemainingTTL(ctx, key)
}

func constFactory[T any](v T, calls *atomic.Int32) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		calls.Add(1)
		return v, nil
	}
}

package xfuture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type ctxKey struct{}

func TestNotStartedUntilAwaited(t *testing.T) {
	var calls atomic.Int32
	f := New(func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	})

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, f.Completed())

	_, _, ok := f.Result()
	assert.False(t, ok)

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), calls.Load())

	v, err, ok = f.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExactlyOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	f := New(func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	})

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Await(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	for range n {
		f.Start()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "value", r)
	}
}

func TestFailureIsShared(t *testing.T) {
	boom := errors.New("boom")
	f := New(func(context.Context) (int, error) { return 0, boom })

	_, err1 := f.Await(context.Background())
	_, err2 := f.Await(context.Background())
	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
}

func TestPanicBecomesError(t *testing.T) {
	f := New(func(context.Context) (int, error) { panic("kaboom") })

	_, err := f.Await(context.Background())
	require.ErrorIs(t, err, ErrPanicked)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestNilFunc(t *testing.T) {
	f := New[int](nil)
	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestWaiterCancelDoesNotCancelComputation(t *testing.T) {
	release := make(chan struct{})
	var sawCancel atomic.Bool
	f := NewWithContext(context.WithValue(context.Background(), ctxKey{}, "trace-1"), func(ctx context.Context) (string, error) {
		<-release
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		v, _ := ctx.Value(ctxKey{}).(string)
		return v, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.Await(ctx)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		cancel()
		select {
		case err := <-errCh:
			return errors.Is(err, context.Canceled)
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	close(release)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "trace-1", v)
	assert.False(t, sawCancel.Load())
}

func TestAwaitPrefersCompletedResult(t *testing.T) {
	f := Resolved(7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := f.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestResolvedAndFailed(t *testing.T) {
	r := Resolved("ok")
	assert.True(t, r.Completed())
	v, err, ok := r.Result()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	fl := Failed[string](boom)
	assert.True(t, fl.Completed())
	_, err, ok = fl.Result()
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)

	// Start 对已完成的 Future 是空操作。
	r.Start()
	fl.Start()
	<-r.Done()
	<-fl.Done()
}

func TestOnCompleteRunsBeforeDone(t *testing.T) {
	release := make(chan struct{})
	f := New(func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	var hookRan atomic.Bool
	f.OnComplete(func(v int, err error) {
		assert.Equal(t, 1, v)
		assert.NoError(t, err)
		// 回调执行时 Done 尚未关闭。
		assert.False(t, f.Completed())
		hookRan.Store(true)
	})
	f.Start()
	close(release)

	_, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, hookRan.Load())
}

func TestOnCompleteAfterCompletionRunsInline(t *testing.T) {
	boom := errors.New("boom")
	f := Failed[int](boom)

	var got error
	f.OnComplete(func(_ int, err error) { got = err })
	assert.ErrorIs(t, got, boom)

	f.OnComplete(nil)
}

func TestOnCompleteRegisteredFromHook(t *testing.T) {
	f := New(func(context.Context) (int, error) { return 3, nil })

	var order []string
	f.OnComplete(func(int, error) {
		order = append(order, "first")
		f.OnComplete(func(int, error) { order = append(order, "nested") })
	})

	_, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "nested"}, order)
}

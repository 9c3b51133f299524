package xconf

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "xonce.yaml", "cache:\n  channel: before\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		reloads int
		lastErr error
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cfg.Watch(ctx, func(_ *Config, err error) {
			mu.Lock()
			defer mu.Unlock()
			reloads++
			lastErr = err
		}, WithDebounce(20*time.Millisecond))
	}()

	// 等待监视器注册目录。
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  channel: after\n"), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloads >= 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.NoError(t, lastErr)
	mu.Unlock()
	got, err := Decode(cfg, "cache", cacheSection{})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Channel)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "xonce.yaml", "a: 1\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("b: 2\n"), 0o600)
	}()

	var mu sync.Mutex
	called := false
	err = cfg.Watch(ctx, func(*Config, error) {
		mu.Lock()
		called = true
		mu.Unlock()
	}, WithDebounce(10*time.Millisecond))
	assert.NoError(t, err)
	mu.Lock()
	assert.False(t, called)
	mu.Unlock()
}

func TestWatchRequiresFile(t *testing.T) {
	cfg, err := Parse([]byte("a: 1"), FormatYAML)
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Watch(context.Background(), nil), ErrNotFileBacked)
}

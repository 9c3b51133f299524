package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是 Watch 的默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchOption 定义 Watch 的选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，非正值忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 监视配置文件，变更后重载并调用 onChange。阻塞到 ctx 取消，返回 nil。
// onChange 在 Watch 所在的 goroutine 中同步调用，err 非 nil 表示重载失败或监视出错。
func (c *Config) Watch(ctx context.Context, onChange func(*Config, error), opts ...WatchOption) error {
	if c.path == "" {
		return ErrNotFileBacked
	}
	o := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("xconf: create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(c.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("xconf: watch %s: %w", dir, err)
	}

	name := filepath.Base(c.path)
	timer := time.NewTimer(o.debounce)
	timer.Stop()
	defer timer.Stop()

	notify := func(err error) {
		if onChange != nil {
			onChange(c, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(o.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			notify(fmt.Errorf("xconf: watch: %w", err))
		case <-timer.C:
			err := c.Reload()
			if errors.Is(err, ErrLoadFailed) {
				// 原子替换过程中文件短暂不存在，等待下一个事件。
				continue
			}
			notify(err)
		}
	}
}

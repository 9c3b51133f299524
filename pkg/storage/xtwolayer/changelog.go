package xtwolayer

import (
	"reflect"
	"sync"
	"time"
	"unsafe"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultChangeLogSize 是 ChangeLog 的默认容量。
	DefaultChangeLogSize = 10000
	// DefaultChangeLogTTL 是 ChangeLog 条目的默认存活时间。
	DefaultChangeLogTTL = time.Minute
)

// ChangeLog 记录本实例写入分布式存储的 key，用于识别自己发布的通知的回声。
//
// 每次写入计数加一，每个回声扣除一次。容量和 TTL 都有上限：
// 被淘汰的条目会让对应回声被当作他人的写入，结果只是多一次本地删除。
type ChangeLog struct {
	mu        sync.Mutex
	lru       *expirable.LRU[string, int]
	closeOnce sync.Once
}

// NewChangeLog 创建 ChangeLog。size 和 ttl 必须为正数。
func NewChangeLog(size int, ttl time.Duration) (*ChangeLog, error) {
	if size <= 0 || ttl <= 0 {
		return nil, ErrInvalidConfig
	}
	return &ChangeLog{lru: expirable.NewLRU[string, int](size, nil, ttl)}, nil
}

// Record 记录一次对 key 的写入。
func (l *ChangeLog) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, _ := l.lru.Peek(key)
	l.lru.Add(key, n+1)
}

// Consume 扣除 key 的一次写入记录，返回 key 是否存在记录。
func (l *ChangeLog) Consume(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.lru.Peek(key)
	if !ok {
		return false
	}
	if n <= 1 {
		l.lru.Remove(key)
	} else {
		l.lru.Add(key, n-1)
	}
	return true
}

// Pending 返回 key 尚未收到回声的写入次数。
func (l *ChangeLog) Pending(key string) int {
	n, _ := l.lru.Peek(key)
	return n
}

// Len 返回有记录的 key 数量，可能包含已过期但尚未清理的条目。
func (l *ChangeLog) Len() int {
	return l.lru.Len()
}

// Close 清空记录并停止后台过期清理。
func (l *ChangeLog) Close() {
	l.closeOnce.Do(func() {
		l.lru.Purge()
		stopCleanup(l.lru)
	})
}

// stopCleanup 关闭 expirable.LRU 内部的 done 通道，使其清理 goroutine 退出。
// golang-lru v2.0.7 没有公开的关闭方法。字段不存在或类型不符时返回 false。
func stopCleanup(lru any) (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			stopped = false
		}
	}()

	v := reflect.ValueOf(lru)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return false
	}
	done := v.Elem().FieldByName("done")
	if !done.IsValid() || done.IsNil() || done.Type() != reflect.TypeOf(make(chan struct{})) {
		return false
	}
	ch := *(*chan struct{})(unsafe.Pointer(done.UnsafeAddr())) //nolint:gosec // 访问上游未导出字段
	close(ch)
	return true
}

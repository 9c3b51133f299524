package xtwolayer

import (
	"time"

	"github.com/omeyang/xonce/pkg/storage/xcache"
)

// Config 是两级缓存的可序列化配置，字段带 koanf 标签，可由 xconf 加载。
// 零值字段使用默认值。
type Config struct {
	// Channel 失效通知频道。
	Channel string `koanf:"channel"`
	// DisableNotifications 关闭失效通知。
	DisableNotifications bool `koanf:"disable_notifications"`
	// PropagateDelete 让 Delete 同时删除分布式 key。
	PropagateDelete bool `koanf:"propagate_delete"`
	// DefaultTTL 分布式默认 TTL，例如 "24h"。
	DefaultTTL time.Duration `koanf:"default_ttl"`
	// LeaseTimeout 租约等待时间。
	LeaseTimeout time.Duration `koanf:"lease_timeout"`
	// ChangeLogSize ChangeLog 容量。
	ChangeLogSize int `koanf:"changelog_size"`
	// ChangeLogTTL ChangeLog 条目存活时间。
	ChangeLogTTL time.Duration `koanf:"changelog_ttl"`

	// Local 本地层配置。
	Local LocalConfig `koanf:"local"`
}

// LocalConfig 是本地层的可序列化配置。
type LocalConfig struct {
	// DefaultTTL 本地默认 TTL。
	DefaultTTL time.Duration `koanf:"default_ttl"`
	// GlobalLock 使用全局锁代替按 key 的锁。
	GlobalLock bool `koanf:"global_lock"`
}

// Options 把配置转换为选项。零值字段不产生选项。
func (c Config) Options() []Option {
	var opts []Option
	if c.Channel != "" {
		opts = append(opts, WithChannel(c.Channel))
	}
	if c.DisableNotifications {
		opts = append(opts, WithNotifications(false))
	}
	if c.PropagateDelete {
		opts = append(opts, WithPropagateDelete(true))
	}
	if c.DefaultTTL != 0 {
		opts = append(opts, WithDefaultTTL(c.DefaultTTL))
	}
	if c.LeaseTimeout != 0 {
		opts = append(opts, WithLeaseTimeout(c.LeaseTimeout))
	}
	if c.ChangeLogSize != 0 || c.ChangeLogTTL != 0 {
		size, ttl := c.ChangeLogSize, c.ChangeLogTTL
		if size == 0 {
			size = DefaultChangeLogSize
		}
		if ttl == 0 {
			ttl = DefaultChangeLogTTL
		}
		opts = append(opts, WithChangeLog(size, ttl))
	}

	var local []xcache.Option
	if c.Local.DefaultTTL != 0 {
		local = append(local, xcache.WithDefaultTTL(c.Local.DefaultTTL))
	}
	if c.Local.GlobalLock {
		local = append(local, xcache.WithGlobalLock())
	}
	if len(local) > 0 {
		opts = append(opts, WithLocalOptions(local...))
	}
	return opts
}

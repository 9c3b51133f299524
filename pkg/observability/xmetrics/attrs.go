package xmetrics

import "time"

// 组件共用的属性名。
const (
	AttrKey    = "xonce.key"
	AttrTarget = "xonce.target"
	AttrTTL    = "xonce.ttl"
)

// String 创建字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Key 创建缓存 key 属性。
func Key(key string) Attr {
	return String(AttrKey, key)
}

// Target 创建远端目标属性，例如带前缀的 Redis key 或频道名。
func Target(target string) Attr {
	return String(AttrTarget, target)
}

// TTL 创建 TTL 属性，以纳秒记录。
func TTL(d time.Duration) Attr {
	return Attr{Key: AttrTTL, Value: d}
}

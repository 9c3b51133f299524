// Package xconf 加载 xonce 服务的配置文件，基于 koanf 实现。
//
// 支持 YAML（.yaml/.yml）和 JSON（.json）。Load 从文件加载，Parse 从字节加载。
// Decode 把某个路径下的配置覆盖到调用方给出的默认值上：
// 文件中没有出现的字段保持默认值，时长字段接受 "20s"、"24h" 这样的字符串。
//
//	cfg, err := xconf.Load("/etc/xonce/config.yaml")
//	cacheCfg, err := xconf.Decode(cfg, "cache", xtwolayer.Config{})
//
// # 热重载
//
// Config.Watch 监视配置文件所在目录（编辑器的原子写入会替换文件本身），
// 在防抖时间内的多次变更只触发一次重载。Watch 阻塞到 ctx 取消，适合放进 errgroup。
// 重载失败时保留旧配置并把错误交给回调。
package xconf

// Package storage 提供缓存相关的子包。
//
// 子包列表：
//   - xcache: 进程内单飞缓存，同一 key 的并发加载只计算一次
//   - xtwolayer: 两级缓存，在 xcache 之上通过分布式租约跨实例只计算一次
package storage

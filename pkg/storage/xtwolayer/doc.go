// Package xtwolayer 提供本地单飞缓存加分布式存储的两级缓存。
//
// # 读取流程
//
// Cache 以 xcache.Cache 作为本地层，本地未命中时回源函数被包装为：
//
//  1. 获取分布式租约（默认 key 为 "lock:<key>"，最多等待 20s，超时返回 xcoord.ErrLeaseTimeout）
//  2. 读取分布式存储中的值和剩余 TTL
//  3. 命中时以剩余 TTL 写入本地，不调用调用方的 factory
//  4. 未命中时调用 factory，按策略计算 TTL，写入分布式存储，记录到 ChangeLog，然后发布失效通知
//  5. 释放租约
//
// 同一进程内同一 key 的并发调用由本地层合并，跨进程由租约串行化，
// 因此每个 key 在每个 TTL 窗口内只会回源一次。
//
// # 失效通知
//
// 每个实例有一个订阅 goroutine。收到的 key 如果能在本实例的 ChangeLog 中找到并扣除，
// 说明是自己写入的回声，忽略；否则删除本地条目，下次访问回落到分布式存储。
// ChangeLog 在发布之前写入，保证自己的回声总能被识别。
//
// Redis Pub/Sub 是至多一次投递。丢失的通知只会让其他实例继续使用旧值直到本地 TTL 到期。
//
// # 删除
//
// Delete 默认只删除本地条目，不会通知其他实例。
// WithPropagateDelete(true) 同时删除分布式 key 并发布通知。
package xtwolayer

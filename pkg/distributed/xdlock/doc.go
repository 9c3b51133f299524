// Package xdlock 提供基于 Redis 的分布式租约（有过期时间的咨询锁）。
//
// # 核心概念
//
//   - Leaser: 租约工厂，Acquire 在有限等待时间内获取租约
//   - Lease: 一次成功的获取，持有唯一的 owner token，Release 只释放自己的租约
//
// 租约不续期。持有者的工作时间应远小于租约 TTL，超时后其他实例可能同时进入临界区，
// 这是咨询锁可以接受的限制。
//
// # 后端
//
//   - NewRedisLeaser: 单个 Redis，SET NX PX 获取，Lua 脚本比较后删除
//   - NewRedsyncLeaser: 基于 go-redsync 的 Redlock，支持多个独立节点（需过半成功）
//
// 两种实现都使用 retry-go 的指数退避轮询等待租约，等待超时返回 ErrLeaseTimeout。
//
// # Key
//
// 租约 key 格式：{prefix}{key}，prefix 默认为 "lock:"。
package xdlock

// Package distributed 提供跨进程协调相关的子包。
//
// 子包列表：
//   - xdlock: 有界等待的分布式租约，SET NX 和 Redlock 两种实现
//   - xcoord: 分布式协调器，键值读写、剩余 TTL、租约和失效通知
package distributed

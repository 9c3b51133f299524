// Package util 提供缓存组件共用的并发原语。
//
// 子包列表：
//   - xkeylock: 基于 key 的进程内互斥锁，支持 context 取消和非阻塞获取
//   - xfuture: 惰性执行、至多一次的共享计算结果
package util

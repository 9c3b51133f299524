// Package xkeylock 提供基于 key 的进程内互斥锁（KeyedMutex）。
//
// 不同 key 之间互不阻塞，同一 key 的持有者串行执行。锁条目无需预注册，
// 首次获取时创建，持有者与等待者全部释放后自动从注册表删除，不会泄漏。
//
// # 注册表
//
// 注册表由 [New] 显式创建、[Locker.Close] 关闭，不存在包级全局状态。
// 需要共享同一把 key 锁的多个缓存实例应持有同一个 Locker。
//
// 注册表按 xxhash 分片，分片互斥锁只用于调整引用计数和 map 成员关系，
// 不会跨越业务回调或网络调用持有。
//
// # 不变量
//
//   - key 出现在注册表中，当且仅当其引用计数（持有者 + 等待者）大于 0
//   - 最后一个释放者在分片锁内完成"计数归零 + 删除条目"，
//     与新获取者的"查找 + 计数加一"互斥，不会出现获取者拿到即将被丢弃的条目
//
// # 全局锁模式
//
// [NewGlobal] 返回所有 key 共享一个信号量的实现，接口完全一致。
// 实现更简单但所有 key 串行，适用于 key 数量极少或需要严格全局顺序的场景。
//
// # 作用域获取
//
// [Do] 获取锁后执行回调，在所有退出路径（包括 panic）释放锁：
//
//	err := xkeylock.Do(ctx, locker, "user:42", func(ctx context.Context) error {
//	    return rebuild(ctx)
//	})
//
// # 可重入性
//
// 锁不可重入，与 sync.Mutex 一致。同一 goroutine 对同一 key 重复 Acquire 会一直阻塞
// 直到 ctx 取消，属于调用方错误，不做运行时检测。
package xkeylock

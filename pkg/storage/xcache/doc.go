// Package xcache 提供防击穿的单飞本地缓存。
//
// Cache 在可过期的本地存储（Store）中保存共享计算句柄（xfuture.Future），
// 同一 key 的并发请求只会触发一次回源，所有调用方得到同一个结果。
//
// # 加载流程
//
//  1. 无锁探测存储，已完成且有效的结果直接返回
//  2. 获取 key 锁（xkeylock），再次探测，复用其他调用方已安装的句柄
//  3. 安装新句柄后立即释放锁，锁从不跨越回源函数
//  4. 等待句柄结果；失败时由 runner 在 key 锁内移除该句柄
//
// # TTL
//
//   - Fixed：安装时即确定 TTL
//   - Until：绝对过期时间
//   - FromValue：先以临时 TTL 安装，计算完成后按值重写 TTL
//
// ttl 为 0 使用默认 TTL（WithDefaultTTL，默认 1 小时），NoExpiration 表示永不过期。
//
// # 无效哨兵
//
// 通过 Policy.WithInvalid 或 WithInvalid 配置。已完成的结果若被判定为无效，
// 下一次访问视为未命中并重新计算，但不会作为错误返回。
//
// # 取消
//
// 调用方 ctx 只控制自己的等待和锁获取，不会取消共享计算。
//
// # 重入
//
// 回源函数内部可以加载其他 key；加载自身 key 会等待自己的结果，属于调用方错误。
package xcache

// Package xcoord 提供两级缓存所需的分布式协调能力。
//
// Coordinator 把分布式存储抽象为几个原语：按 key 读写字节值、查询剩余 TTL、
// 获取有过期时间的租约、在频道上发布和订阅 key。NewRedis 基于 go-redis v9 实现。
//
// # 错误
//
// 传输错误和熔断打开统一包装为 ErrStoreUnavailable，调用方通过 errors.Is 判断。
// 租约等待超时返回 ErrLeaseTimeout（即 xdlock.ErrLeaseTimeout）。
// ctx 取消原样返回 ctx.Err()，不计入熔断统计。
//
// # 熔断
//
// WithBreaker 启用 gobreaker 熔断器：连续失败达到阈值后在冷却期内快速失败，
// 避免 Redis 故障时每次回源都阻塞在网络超时上。
//
// # 订阅
//
// Subscribe 在收到服务端确认后才返回，之后发布的消息不会丢失。
// 消息只携带 key，不携带值。投递语义为至多一次（Redis Pub/Sub），
// 订阅方需要容忍丢失的通知。
package xcoord

// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xmetrics: 统一观测接口（跨度与缓存事件），含 OpenTelemetry 实现
//
// 日志直接使用 log/slog，各组件通过 WithLogger 接收 *slog.Logger。
package observability

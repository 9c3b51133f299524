// xoncedemo 演示多个实例通过两级缓存共享一次计算。
//
// 用法:
//
//	xoncedemo [全局选项] run [选项]
//
// run 启动若干两级缓存实例（模拟多个进程），每个实例的多个 worker 反复读取同一个 key。
// 输出每个 worker 拿到的值由哪个实例计算，以及 factory 的总调用次数。
// 未指定 --redis 时使用进程内的 miniredis。
//
// 退出码:
//
//	0: 成功
//	1: 运行失败
//	2: 参数或配置错误
//
// 示例:
//
//	xoncedemo run                                   # 进程内 Redis，默认参数
//	xoncedemo run --redis 127.0.0.1:6379 -i 3 -w 8  # 3 个实例，每个 8 个 worker
//	xoncedemo run -c xonce.yaml --watch --stats     # 从配置文件加载，监视日志级别变更
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:     "xoncedemo",
		Usage:    "两级单飞缓存演示",
		Version:  fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Commands: []*cli.Command{createRunCommand()},
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, args); err != nil {
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usage)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// usageError 表示参数或配置错误，退出码为 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

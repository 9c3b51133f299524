package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xonce/pkg/config/xconf"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "启动多个实例并发读取同一个 key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件路径（YAML 或 JSON）"},
			&cli.StringFlag{Name: "redis", Usage: "Redis 地址，为空时使用进程内 miniredis"},
			&cli.BoolFlag{Name: "redsync", Usage: "使用 Redlock 租约"},
			&cli.IntFlag{Name: "instances", Aliases: []string{"i"}, Usage: "实例数量", Value: 2},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "每个实例的 worker 数量", Value: 4},
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "每个 worker 的读取次数", Value: 3},
			&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "缓存 key", Value: "demo"},
			&cli.DurationFlag{Name: "ttl", Usage: "分布式存储 TTL，0 表示使用缓存默认值", Value: 30 * time.Second},
			&cli.DurationFlag{Name: "compute", Usage: "factory 模拟耗时", Value: 200 * time.Millisecond},
			&cli.StringFlag{Name: "log-level", Usage: "日志级别 (debug, info, warn, error)", Value: "info"},
			&cli.StringFlag{Name: "log-format", Usage: "日志格式 (text, json)", Value: "text"},
			&cli.BoolFlag{Name: "stats", Usage: "结束时打印缓存事件计数"},
			&cli.BoolFlag{Name: "watch", Usage: "运行期间监视配置文件，动态调整日志级别"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	s, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("watch") && cfg == nil {
		return usagef("--watch requires --config")
	}

	level := new(slog.LevelVar)
	lv, err := parseLevel(s.Log.Level)
	if err != nil {
		return err
	}
	level.Set(lv)
	logger := newLogger(os.Stderr, s.Log.Format, level)

	var (
		obs xmetrics.Observer = xmetrics.NoopObserver{}
		st  *stats
	)
	if cmd.Bool("stats") {
		if st, err = newStats(); err != nil {
			return err
		}
		defer func() {
			if err := st.shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("shutdown meter provider failed", slog.Any("error", err))
			}
		}()
		obs = st.observer
	}

	if cmd.Bool("watch") {
		stop := watchLevel(ctx, cfg, level, logger)
		defer stop()
	}

	rep, err := runDemo(ctx, s, logger, obs)
	if rep != nil {
		printReport(cmd.Root().Writer, rep)
	}
	if err != nil {
		return err
	}
	if st != nil {
		return st.print(ctx, cmd.Root().Writer)
	}
	return nil
}

// watchLevel 在后台监视配置文件，log.level 变化时更新 level。返回的函数停止监视并等待退出。
func watchLevel(ctx context.Context, cfg *xconf.Config, level *slog.LevelVar, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := cfg.Watch(ctx, func(c *xconf.Config, err error) {
			if err != nil {
				logger.Warn("reload config failed", slog.Any("error", err))
				return
			}
			s, err := xconf.Decode(c, "log", logSettings{Level: level.Level().String()})
			if err != nil {
				logger.Warn("decode log settings failed", slog.Any("error", err))
				return
			}
			lv, err := parseLevel(s.Level)
			if err != nil {
				logger.Warn("ignore log level", slog.Any("error", err))
				return
			}
			if lv != level.Level() {
				level.Set(lv)
				logger.Info("log level changed", slog.String("level", lv.String()))
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watch config stopped", slog.Any("error", err))
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func printReport(w io.Writer, rep *report) {
	for _, o := range rep.Observations {
		fmt.Fprintf(w, "instance=%d worker=%d iteration=%d value=(instance=%d seq=%d) elapsed=%s\n",
			o.Instance, o.Worker, o.Iteration, o.Value.Instance, o.Value.Seq, o.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "reads: %d, factory calls: %d, producers: %v\n",
		len(rep.Observations), rep.Computations, rep.Producers())
}

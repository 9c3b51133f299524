package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xonce/pkg/config/xconf"
	"github.com/omeyang/xonce/pkg/storage/xtwolayer"
)

// settings 是演示程序的完整配置，可由配置文件和命令行参数共同决定。
type settings struct {
	Redis redisSettings    `koanf:"redis"`
	Cache xtwolayer.Config `koanf:"cache"`
	Demo  demoSettings     `koanf:"demo"`
	Log   logSettings      `koanf:"log"`
}

type redisSettings struct {
	// Addr 为空时使用进程内 miniredis。
	Addr      string `koanf:"addr"`
	KeyPrefix string `koanf:"key_prefix"`
	// Redsync 使用 Redlock 租约代替 SET NX。
	Redsync bool `koanf:"redsync"`
}

type demoSettings struct {
	Instances  int           `koanf:"instances"`
	Workers    int           `koanf:"workers"`
	Iterations int           `koanf:"iterations"`
	Key        string        `koanf:"key"`
	TTL        time.Duration `koanf:"ttl"`
	Compute    time.Duration `koanf:"compute"`
}

type logSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultSettings() settings {
	return settings{
		Demo: demoSettings{
			Instances:  2,
			Workers:    4,
			Iterations: 3,
			Key:        "demo",
			TTL:        30 * time.Second,
			Compute:    200 * time.Millisecond,
		},
		Log: logSettings{Level: "info", Format: "text"},
	}
}

func (s settings) validate() error {
	switch {
	case s.Demo.Instances <= 0:
		return usagef("instances must be positive, got %d", s.Demo.Instances)
	case s.Demo.Workers <= 0:
		return usagef("workers must be positive, got %d", s.Demo.Workers)
	case s.Demo.Iterations <= 0:
		return usagef("iterations must be positive, got %d", s.Demo.Iterations)
	case s.Demo.Key == "":
		return usagef("key must not be empty")
	case s.Demo.Compute < 0:
		return usagef("compute must not be negative")
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		return err
	}
	return checkFormat(s.Log.Format)
}

// loadSettings 依次应用默认值、配置文件和显式设置的命令行参数。
func loadSettings(cmd *cli.Command) (settings, *xconf.Config, error) {
	s := defaultSettings()

	var cfg *xconf.Config
	if path := cmd.String("config"); path != "" {
		c, err := xconf.Load(path)
		if err != nil {
			return s, nil, &usageError{err: err}
		}
		if s, err = xconf.Decode(c, "", s); err != nil {
			return s, nil, &usageError{err: err}
		}
		cfg = c
	}

	if cmd.IsSet("redis") {
		s.Redis.Addr = cmd.String("redis")
	}
	if cmd.IsSet("redsync") {
		s.Redis.Redsync = cmd.Bool("redsync")
	}
	if cmd.IsSet("instances") {
		s.Demo.Instances = int(cmd.Int("instances"))
	}
	if cmd.IsSet("workers") {
		s.Demo.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("iterations") {
		s.Demo.Iterations = int(cmd.Int("iterations"))
	}
	if cmd.IsSet("key") {
		s.Demo.Key = cmd.String("key")
	}
	if cmd.IsSet("ttl") {
		s.Demo.TTL = cmd.Duration("ttl")
	}
	if cmd.IsSet("compute") {
		s.Demo.Compute = cmd.Duration("compute")
	}
	if cmd.IsSet("log-level") {
		s.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		s.Log.Format = cmd.String("log-format")
	}
	return s, cfg, s.validate()
}

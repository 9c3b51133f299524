package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xonce/pkg/distributed/xcoord"
	"github.com/omeyang/xonce/pkg/distributed/xdlock"
	"github.com/omeyang/xonce/pkg/observability/xmetrics"
	"github.com/omeyang/xonce/pkg/storage/xtwolayer"
)

// sample 是演示中被缓存的值。
type sample struct {
	Instance int       `json:"instance"`
	Seq      int64     `json:"seq"`
	At       time.Time `json:"at"`
}

// observation 记录一个 worker 读到的值。
type observation struct {
	Instance  int
	Worker    int
	Iteration int
	Value     sample
	Elapsed   time.Duration
}

// report 汇总一次演示的结果。
type report struct {
	Computations int64
	Observations []observation
}

// Producers 返回计算出被读到的值的实例编号（去重、升序）。
func (r *report) Producers() []int {
	seen := make(map[int]struct{})
	for _, o := range r.Observations {
		seen[o.Value.Instance] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// instance 模拟一个独立进程：独立的 Redis 连接、协调器和两级缓存。
type instance struct {
	id     int
	client *redis.Client
	leaser xdlock.Leaser
	coord  xcoord.Coordinator
	cache  *xtwolayer.Cache[sample]
}

func (in *instance) close() error {
	var errs []error
	if in.cache != nil {
		errs = append(errs, in.cache.Close())
	}
	if in.coord != nil {
		errs = append(errs, in.coord.Close())
	}
	if in.leaser != nil {
		errs = append(errs, in.leaser.Close())
	}
	errs = append(errs, in.client.Close())
	return errors.Join(errs...)
}

// runDemo 按 s 启动实例和 worker，返回所有读取结果。
func runDemo(ctx context.Context, s settings, logger *slog.Logger, obs xmetrics.Observer) (*report, error) {
	addr, embedded := s.Redis.Addr, s.Redis.Addr == ""
	if embedded {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start embedded redis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		logger.Info("using embedded redis", slog.String("addr", addr))
	}

	instances := make([]*instance, 0, s.Demo.Instances)
	defer func() {
		for _, in := range instances {
			if err := in.close(); err != nil {
				logger.Warn("close instance failed", slog.Int("instance", in.id), slog.Any("error", err))
			}
		}
	}()
	for i := range s.Demo.Instances {
		in, err := newInstance(ctx, i, redisOptions(addr, embedded), s, logger, obs)
		if err != nil {
			return nil, err
		}
		instances = append(instances, in)
	}

	var (
		seq = new(atomic.Int64)
		mu  sync.Mutex
		rep = &report{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, in := range instances {
		for w := range s.Demo.Workers {
			g.Go(func() error {
				for it := range s.Demo.Iterations {
					start := time.Now()
					v, err := in.cache.GetOrCreate(gctx, s.Demo.Key, compute(in.id, s.Demo.Compute, seq), s.Demo.TTL)
					if err != nil {
						return fmt.Errorf("instance %d worker %d: %w", in.id, w, err)
					}
					mu.Lock()
					rep.Observations = append(rep.Observations, observation{
						Instance:  in.id,
						Worker:    w,
						Iteration: it,
						Value:     v,
						Elapsed:   time.Since(start),
					})
					mu.Unlock()
				}
				return nil
			})
		}
	}
	err := g.Wait()
	rep.Computations = seq.Load()
	return rep, err
}

func redisOptions(addr string, embedded bool) *redis.Options {
	opts := &redis.Options{Addr: addr}
	if embedded {
		// miniredis 的订阅只支持 RESP2。
		opts.Protocol = 2
	}
	return opts
}

func newInstance(ctx context.Context, id int, ro *redis.Options, s settings, logger *slog.Logger, obs xmetrics.Observer) (*instance, error) {
	log := logger.With(slog.Int("instance", id))
	obs = xmetrics.Tagged(obs, xmetrics.String("instance", strconv.Itoa(id)))
	in := &instance{
		id:     id,
		client: redis.NewClient(ro),
	}

	coordOpts := []xcoord.Option{
		xcoord.WithKeyPrefix(s.Redis.KeyPrefix),
		xcoord.WithBreaker(5, 10*time.Second),
		xcoord.WithLogger(log),
		xcoord.WithObserver(obs),
	}
	if s.Redis.Redsync {
		leaser, err := xdlock.NewRedsyncLeaser([]redis.UniversalClient{in.client})
		if err != nil {
			return nil, errors.Join(err, in.close())
		}
		in.leaser = leaser
		coordOpts = append(coordOpts, xcoord.WithLeaser(leaser))
	}
	coord, err := xcoord.NewRedis(in.client, coordOpts...)
	if err != nil {
		return nil, errors.Join(err, in.close())
	}
	in.coord = coord

	opts := append(s.Cache.Options(), xtwolayer.WithLogger(log), xtwolayer.WithObserver(obs))
	cache, err := xtwolayer.New[sample](ctx, coord, opts...)
	if err != nil {
		return nil, errors.Join(err, in.close())
	}
	in.cache = cache
	return in, nil
}

// compute 返回一个耗时 d 的 factory，每次调用分配新的序号。
func compute(id int, d time.Duration, seq *atomic.Int64) func(context.Context) (sample, error) {
	return func(ctx context.Context) (sample, error) {
		if d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return sample{}, ctx.Err()
			case <-t.C:
			}
		}
		return sample{Instance: id, Seq: seq.Add(1), At: time.Now()}, nil
	}
}

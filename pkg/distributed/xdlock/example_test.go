package xdlock_test

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xonce/pkg/distributed/xdlock"
)

func ExampleNewRedisLeaser() {
	mr, err := miniredis.Run()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	leaser, err := xdlock.NewRedisLeaser(client)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer leaser.Close()

	ctx := context.Background()
	lease, err := leaser.Acquire(ctx, "report", 20*time.Second, time.Second)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(lease.Key())

	_, err = leaser.Acquire(ctx, "report", 20*time.Second, 0)
	fmt.Println(err != nil)

	fmt.Println(lease.Release(ctx))
	// Output:
	// lock:report
	// true
	// <nil>
}

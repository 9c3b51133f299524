package xcoord_test

import (
	"context"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xonce/pkg/distributed/xcoord"
)

func ExampleNewRedis() {
	mr, err := miniredis.Run()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	coord, err := xcoord.NewRedis(client, xcoord.WithKeyPrefix("app:"), xcoord.WithLogger(nil))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer coord.Close()

	ctx := context.Background()
	_ = coord.Set(ctx, "report", []byte("42"), time.Minute)

	v, ok, err := coord.Get(ctx, "report")
	fmt.Println(string(v), ok, err)

	ttl, ok, _ := coord.RemainingTTL(ctx, "report")
	fmt.Println(ttl, ok)

	// Output:
	// 42 true <nil>
	// 1m0s true
}

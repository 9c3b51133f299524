package xcache

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func BenchmarkGetOrCreateHit(b *testing.B) {
	c, err := New[int]()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	factory := func(context.Context) (int, error) { return 1, nil }
	if _, err := c.GetOrCreate(ctx, "key", factory, time.Hour); err != nil {
		b.Fatal(err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.GetOrCreate(ctx, "key", factory, time.Hour); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkGetOrCreateMiss(b *testing.B) {
	c, err := New[int]()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	factory := func(context.Context) (int, error) { return 1, nil }
	i := 0
	for b.Loop() {
		if _, err := c.GetOrCreate(ctx, strconv.Itoa(i), factory, time.Hour); err != nil {
			b.Fatal(err)
		}
		i++
	}
}

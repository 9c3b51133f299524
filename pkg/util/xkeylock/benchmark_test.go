package xkeylock

import (
	"context"
	"strconv"
	"testing"
)

func BenchmarkAcquireUnlock(b *testing.B) {
	kl := newForTest(b)
	ctx := context.Background()

	for b.Loop() {
		h, err := kl.Acquire(ctx, "key")
		if err != nil {
			b.Fatal(err)
		}
		_ = h.Unlock()
	}
}

func BenchmarkAcquireUnlockParallelDistinctKeys(b *testing.B) {
	kl := newForTest(b)
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			h, err := kl.Acquire(ctx, strconv.Itoa(i%1024))
			if err != nil {
				b.Fatal(err)
			}
			_ = h.Unlock()
			i++
		}
	})
}

func BenchmarkGlobalAcquireUnlockParallel(b *testing.B) {
	kl := NewGlobal()
	defer kl.Close()
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			h, err := kl.Acquire(ctx, strconv.Itoa(i%1024))
			if err != nil {
				b.Fatal(err)
			}
			_ = h.Unlock()
			i++
		}
	})
}

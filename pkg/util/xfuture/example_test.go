package xfuture_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xonce/pkg/util/xfuture"
)

func ExampleFuture_Await() {
	f := xfuture.New(func(ctx context.Context) (string, error) {
		return "computed once", nil
	})

	for range 3 {
		v, err := f.Await(context.Background())
		fmt.Println(v, err)
	}
	// Output:
	// computed once <nil>
	// computed once <nil>
	// computed once <nil>
}

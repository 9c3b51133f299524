package xmetrics_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

func ExampleStart() {
	var obs xmetrics.Observer = xmetrics.NoopObserver{}

	_, span := xmetrics.Start(context.Background(), obs, xmetrics.SpanOptions{
		Component: "xcache",
		Operation: "factory",
	})
	err := errors.New("backend unavailable")
	span.End(xmetrics.Result{Err: err})

	xmetrics.Count(context.Background(), obs, "xcache", xmetrics.EventEvict)
	fmt.Println("recorded")
	// Output: recorded
}

package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xonce/pkg/observability/xmetrics"
)

const eventsMetric = "xonce.cache.events"

// stats 使用 ManualReader 收集缓存事件计数。
type stats struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	observer xmetrics.Observer
}

func newStats() (*stats, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs, err := xmetrics.NewOTelObserver(
		xmetrics.WithMeterProvider(provider),
		xmetrics.WithInstrumentationName("xoncedemo"),
	)
	if err != nil {
		return nil, err
	}
	return &stats{reader: reader, provider: provider, observer: obs}, nil
}

// eventCount 是按组件和事件聚合的计数。
type eventCount struct {
	Component string
	Event     string
	Count     int64
}

// events 读取当前累计的事件计数，合并所有实例，按组件、事件排序。
func (s *stats) events(ctx context.Context) ([]eventCount, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	type key struct{ component, event string }
	totals := make(map[key]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != eventsMetric {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				k := key{attrValue(dp.Attributes, "component"), attrValue(dp.Attributes, "event")}
				totals[k] += dp.Value
			}
		}
	}
	out := make([]eventCount, 0, len(totals))
	for k, n := range totals {
		out = append(out, eventCount{Component: k.component, Event: k.event, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component != out[j].Component {
			return out[i].Component < out[j].Component
		}
		return out[i].Event < out[j].Event
	})
	return out, nil
}

func (s *stats) print(ctx context.Context, w io.Writer) error {
	events, err := s.events(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "events:")
	for _, e := range events {
		fmt.Fprintf(w, "  %-10s %-12s %d\n", e.Component, e.Event, e.Count)
	}
	return nil
}

func (s *stats) shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

func attrValue(set attribute.Set, key string) string {
	if v, ok := set.Value(attribute.Key(key)); ok {
		return v.AsString()
	}
	return ""
}

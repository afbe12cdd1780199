package telemetry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/flowwatch/backpressure"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type reporterFixture struct {
	reporter *Reporter
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
}

func newReporterFixture(t *testing.T) *reporterFixture {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	reporter, err := NewReporter(tp, mp, zaptest.NewLogger(t))
	require.NoError(t, err)
	return &reporterFixture{reporter: reporter, spans: spans, reader: reader}
}

func (f *reporterFixture) collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func episode(kind backpressure.EventKind, id string, at time.Time, d time.Duration) backpressure.Event {
	return backpressure.Event{
		Kind:      kind,
		Stage:     "p-0",
		Strategy:  backpressure.StrategyInstant,
		EpisodeID: id,
		At:        at,
		Duration:  d,
	}
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestReporter_RelievedEpisodeSpan(t *testing.T) {
	f := newReporterFixture(t)

	f.reporter.Report(episode(backpressure.EventDetected, "ep-1", epoch, 0))
	assert.Equal(t, 1, f.reporter.OpenSpans())
	assert.Empty(t, f.spans.Ended())

	f.reporter.Report(episode(backpressure.EventRelieved, "ep-1", epoch.Add(250*time.Millisecond), 250*time.Millisecond))
	assert.Zero(t, f.reporter.OpenSpans())

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, "backpressure.episode", span.Name())
	assert.Equal(t, epoch, span.StartTime())
	assert.Equal(t, epoch.Add(250*time.Millisecond), span.EndTime())

	attrs := span.Attributes()
	v, ok := attrValue(attrs, "backpressure.abandoned")
	require.True(t, ok)
	assert.False(t, v.AsBool())
	v, ok = attrValue(attrs, "backpressure.episode_id")
	require.True(t, ok)
	assert.Equal(t, "ep-1", v.AsString())
	v, ok = attrValue(attrs, "backpressure.duration_ms")
	require.True(t, ok)
	assert.Equal(t, int64(250), v.AsInt64())
}

func TestReporter_AbandonedEpisodeSpan(t *testing.T) {
	f := newReporterFixture(t)

	f.reporter.Report(episode(backpressure.EventDetected, "ep-2", epoch, 0))
	f.reporter.Report(episode(backpressure.EventAbandoned, "ep-2", epoch.Add(time.Second), time.Second))

	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	v, ok := attrValue(ended[0].Attributes(), "backpressure.abandoned")
	require.True(t, ok)
	assert.True(t, v.AsBool())
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "stage stopped", ended[0].Events()[0].Name)
	assert.Zero(t, f.reporter.OpenSpans())
}

func TestReporter_Metrics(t *testing.T) {
	f := newReporterFixture(t)

	f.reporter.Report(episode(backpressure.EventDetected, "a", epoch, 0))
	f.reporter.Report(episode(backpressure.EventRelieved, "a", epoch.Add(time.Second), time.Second))
	f.reporter.Report(episode(backpressure.EventDetected, "b", epoch.Add(2*time.Second), 0))
	f.reporter.Report(episode(backpressure.EventAbandoned, "b", epoch.Add(3*time.Second), time.Second))

	rm := f.collect(t)

	m, ok := findMetric(rm, "flowwatch.backpressure.episodes")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byEvent := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		event, _ := dp.Attributes.Value("backpressure.event")
		byEvent[event.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"detected": 2, "relieved": 1, "abandoned": 1}, byEvent)

	m, ok = findMetric(rm, "flowwatch.backpressure.episode.duration")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.0, hist.DataPoints[0].Sum, 1e-9)
}

func TestReporter_UnknownEpisodeIgnored(t *testing.T) {
	f := newReporterFixture(t)
	assert.NotPanics(t, func() {
		f.reporter.Report(episode(backpressure.EventRelieved, "missing", epoch, time.Second))
	})
	assert.Empty(t, f.spans.Ended())
}

func TestReporter_Concurrent(t *testing.T) {
	f := newReporterFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("%d-%d", i, j)
				f.reporter.Report(episode(backpressure.EventDetected, id, epoch, 0))
				f.reporter.Report(episode(backpressure.EventRelieved, id, epoch.Add(time.Millisecond), time.Millisecond))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.spans.Ended(), 400)
	assert.Zero(t, f.reporter.OpenSpans())
}

func TestReporter_ViewsUseEpisodeBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithView(Views()...))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	reporter, err := NewReporter(sdktrace.NewTracerProvider(), mp, zaptest.NewLogger(t))
	require.NoError(t, err)

	reporter.Report(episode(backpressure.EventDetected, "a", epoch, 0))
	reporter.Report(episode(backpressure.EventRelieved, "a", epoch.Add(30*time.Millisecond), 30*time.Millisecond))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	m, ok := findMetric(rm, durationInstrument)
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, episodeDurationBounds, dp.Bounds)
	require.Len(t, dp.BucketCounts, len(episodeDurationBounds)+1)
	// 30ms falls in (25ms, 50ms]
	assert.Equal(t, uint64(1), dp.BucketCounts[3])

	m, ok = findMetric(rm, episodesInstrument)
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, point := range sum.DataPoints {
		assert.Equal(t, 3, point.Attributes.Len())
		_, hasEvent := point.Attributes.Value(attrEvent)
		assert.True(t, hasEvent)
	}
}

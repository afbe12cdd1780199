package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/flowwatch/backpressure"
)

const (
	instrumentationName = "github.com/BaSui01/flowwatch/backpressure"

	episodesInstrument = "flowwatch.backpressure.episodes"
	durationInstrument = "flowwatch.backpressure.episode.duration"

	attrStage     attribute.Key = "backpressure.stage"
	attrStrategy  attribute.Key = "backpressure.strategy"
	attrEvent     attribute.Key = "backpressure.event"
	attrEpisodeID attribute.Key = "backpressure.episode_id"
)

// Reporter turns backpressure episodes into OTel spans and metrics. Each
// episode becomes one span, started at detection and ended at relief or
// abandonment. Safe for concurrent use by many stages.
type Reporter struct {
	tracer   trace.Tracer
	episodes metric.Int64Counter
	duration metric.Float64Histogram
	logger   *zap.Logger

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewReporter creates a Reporter on the given providers.
func NewReporter(tp trace.TracerProvider, mp metric.MeterProvider, logger *zap.Logger) (*Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := mp.Meter(instrumentationName)

	episodes, err := meter.Int64Counter(episodesInstrument,
		metric.WithDescription("Backpressure episode transitions by event"),
		metric.WithUnit("{episode}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create episodes counter: %w", err)
	}

	duration, err := meter.Float64Histogram(durationInstrument,
		metric.WithDescription("Duration of relieved backpressure episodes"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return &Reporter{
		tracer:   tp.Tracer(instrumentationName),
		episodes: episodes,
		duration: duration,
		logger:   logger.With(zap.String("component", "telemetry")),
		spans:    make(map[string]trace.Span),
	}, nil
}

// Report implements backpressure.Reporter.
func (r *Reporter) Report(ev backpressure.Event) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attrStage.String(ev.Stage),
		attrStrategy.String(string(ev.Strategy)),
	}
	r.episodes.Add(ctx, 1, metric.WithAttributes(append(attrs, attrEvent.String(string(ev.Kind)))...))

	switch ev.Kind {
	case backpressure.EventDetected:
		_, span := r.tracer.Start(ctx, "backpressure.episode",
			trace.WithTimestamp(ev.At),
			trace.WithAttributes(append(attrs, attrEpisodeID.String(ev.EpisodeID))...),
		)
		r.mu.Lock()
		r.spans[ev.EpisodeID] = span
		r.mu.Unlock()

	case backpressure.EventRelieved, backpressure.EventAbandoned:
		abandoned := ev.Kind == backpressure.EventAbandoned
		if !abandoned {
			r.duration.Record(ctx, ev.Duration.Seconds(), metric.WithAttributes(attrs...))
		}

		span, ok := r.take(ev.EpisodeID)
		if !ok {
			r.logger.Debug("episode span not found", zap.String("episode_id", ev.EpisodeID))
			return
		}
		span.SetAttributes(
			attribute.Bool("backpressure.abandoned", abandoned),
			attribute.Int64("backpressure.duration_ms", ev.Duration.Milliseconds()),
		)
		if abandoned {
			span.AddEvent("stage stopped", trace.WithTimestamp(ev.At))
		}
		span.End(trace.WithTimestamp(ev.At))
	}
}

// OpenSpans returns the number of episodes whose span has not ended.
func (r *Reporter) OpenSpans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

func (r *Reporter) take(id string) (trace.Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span, ok := r.spans[id]
	delete(r.spans, id)
	return span, ok
}

package backpressure

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/flowwatch/stream"
)

// Option adjusts an attachment made by Attach, Alert or Monitor.
type Option func(*attachment)

type attachment struct {
	cfg        Config
	reporters  []Reporter
	streamOpts []stream.Option
}

// WithThreshold sets the grace period of the threshold strategy.
func WithThreshold(d time.Duration) Option {
	return func(a *attachment) { a.cfg.Threshold = d }
}

// WithName names the stage in log lines.
func WithName(name string) Option {
	return func(a *attachment) { a.cfg.Name = name }
}

// WithReporter adds reporters receiving every episode transition.
func WithReporter(reporters ...Reporter) Option {
	return func(a *attachment) { a.reporters = append(a.reporters, reporters...) }
}

// WithLogger sets the logger the log reporter writes to.
func WithLogger(logger *zap.Logger) Option {
	return WithStreamOptions(stream.WithLogger(logger))
}

// WithStreamOptions passes attributes through to stream.Via.
func WithStreamOptions(opts ...stream.Option) Option {
	return func(a *attachment) { a.streamOpts = append(a.streamOpts, opts...) }
}

// Attach instruments src with a backpressure stage configured by cfg. The
// returned Source emits exactly the elements of src.
func Attach[T any](src stream.Source[T], cfg Config, opts ...Option) (stream.Source[T], error) {
	a := &attachment{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	stage, err := NewStage[T](a.cfg, a.reporters...)
	if err != nil {
		return nil, err
	}
	return stream.Via[T](src, stage, a.streamOpts...), nil
}

// Alert attaches a threshold detector logging at level. The threshold
// defaults to 40ms; override it with WithThreshold.
func Alert[T any](src stream.Source[T], level zapcore.Level, opts ...Option) (stream.Source[T], error) {
	cfg := DefaultConfig()
	cfg.Level = level
	return Attach(src, cfg, opts...)
}

// Monitor attaches an instant detector logging at level.
func Monitor[T any](src stream.Source[T], level zapcore.Level, opts ...Option) (stream.Source[T], error) {
	cfg := DefaultConfig()
	cfg.Strategy = StrategyInstant
	cfg.Level = level
	return Attach(src, cfg, opts...)
}

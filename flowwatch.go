// Package flowwatch provides a top-level convenience entry point for
// instrumenting pipelines with backpressure diagnostics.
//
// Usage:
//
//	import "github.com/BaSui01/flowwatch"
//
//	src, err := flowwatch.Alert(stream.FromSlice(items), zapcore.InfoLevel)
//	src, err := flowwatch.Monitor(src, zapcore.DebugLevel, flowwatch.WithName("orders"))
//
// This is a thin wrapper around [backpressure.Alert] and
// [backpressure.Monitor]; both produce identical results.
package flowwatch

import (
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/flowwatch/backpressure"
	"github.com/BaSui01/flowwatch/stream"
)

// Option configures a backpressure stage attached by [Alert] or [Monitor].
type Option = backpressure.Option

// Alert attaches a stage that reports demand gaps longer than a threshold
// (40ms unless overridden with [WithThreshold]).
func Alert[T any](src stream.Source[T], level zapcore.Level, opts ...Option) (stream.Source[T], error) {
	return backpressure.Alert(src, level, opts...)
}

// Monitor attaches a stage that reports every element arriving without
// downstream demand.
func Monitor[T any](src stream.Source[T], level zapcore.Level, opts ...Option) (stream.Source[T], error) {
	return backpressure.Monitor(src, level, opts...)
}

// Re-export option shortcuts so callers never need to import backpressure/.

// WithName sets the stage name shown in log lines.
var WithName = backpressure.WithName

// WithThreshold overrides the grace period used by [Alert].
var WithThreshold = backpressure.WithThreshold

// WithLogger sets the zap logger backpressure events are written to.
var WithLogger = backpressure.WithLogger

// WithReporter adds reporters receiving every episode transition.
var WithReporter = backpressure.WithReporter

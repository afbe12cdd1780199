package backpressure

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogReporter writes detected and relieved events to a zap logger at a
// fixed level. Abandoned episodes are not logged.
type LogReporter struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewLogReporter creates a LogReporter. A nil logger discards everything.
func NewLogReporter(logger *zap.Logger, level zapcore.Level) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{
		logger: logger.With(zap.String("component", "backpressure")),
		level:  level,
	}
}

func (r *LogReporter) Report(ev Event) {
	var msg string
	switch ev.Kind {
	case EventDetected:
		msg = fmt.Sprintf("[%s] Backpressure detected. Measuring duration starting now...", ev.Stage)
	case EventRelieved:
		msg = fmt.Sprintf("[%s] Backpressure relieved. Total backpressure wait time: %s", ev.Stage, ev.Duration)
	default:
		return
	}

	ce := r.logger.Check(r.level, msg)
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("stage", ev.Stage),
		zap.String("strategy", string(ev.Strategy)),
		zap.String("episode_id", ev.EpisodeID),
	}
	if ev.Kind == EventRelieved {
		fields = append(fields, zap.Duration("duration", ev.Duration))
	}
	ce.Write(fields...)
}

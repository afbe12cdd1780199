package backpressure

import (
	"fmt"

	"github.com/BaSui01/flowwatch/stream"
)

const checkTimerKey = "backpressure-check"

// Stage is a transparent stream stage reporting backpressure episodes. Each
// materialization gets its own Strategy; its log lines go to the logger of
// the stage attributes, at Config.Level.
type Stage[T any] struct {
	cfg       Config
	reporters []Reporter
}

// NewStage validates cfg and creates a Stage. reporters receive every
// event in addition to the log reporter.
func NewStage[T any](cfg Config, reporters ...Reporter) (*Stage[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create backpressure stage: %w", err)
	}
	return &Stage[T]{cfg: cfg, reporters: reporters}, nil
}

// Config returns the configuration of the stage.
func (s *Stage[T]) Config() Config { return s.cfg }

func (s *Stage[T]) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return s.cfg.DefaultName()
}

func (s *Stage[T]) CreateLogic(attrs stream.Attributes) stream.Logic[T] {
	name := attrs.NameOr(s.Name())
	reporters := append([]Reporter{NewLogReporter(attrs.Logger(), s.cfg.Level)}, s.reporters...)
	return &logic[T]{strategy: newStrategy(s.cfg, name, Multi(reporters...))}
}

// logic adapts a Strategy to the stream callbacks. Completion, failure and
// cancellation keep the pass-through defaults of BaseLogic.
type logic[T any] struct {
	stream.BaseLogic[T]
	strategy Strategy
}

func (l *logic[T]) PreStart(sc stream.StageContext[T]) {
	if interval := l.strategy.CheckInterval(); interval > 0 {
		sc.ScheduleRepeatedly(checkTimerKey, interval)
	}
}

func (l *logic[T]) OnPush(sc stream.StageContext[T], elem T) {
	demanded := sc.IsAvailable()
	l.strategy.OnPush(sc.Now(), demanded)
	if !demanded {
		sc.Emit(elem, func() { l.OnPull(sc) })
		return
	}
	sc.Push(elem)
	if l.strategy.Prefetch() {
		l.requestNext(sc)
	}
}

func (l *logic[T]) OnPull(sc stream.StageContext[T]) {
	l.strategy.OnPull(sc.Now())
	l.requestNext(sc)
}

func (l *logic[T]) OnTimer(sc stream.StageContext[T], key string) {
	if key == checkTimerKey {
		l.strategy.OnTick(sc.Now())
	}
}

func (l *logic[T]) PostStop(sc stream.StageContext[T]) {
	l.strategy.OnStop(sc.Now())
}

func (l *logic[T]) requestNext(sc stream.StageContext[T]) {
	if !sc.HasBeenPulled() && !sc.IsClosed() {
		sc.Pull()
	}
}

package backpressure

import (
	"fmt"
	"time"
)

// Strategy is the detection state machine of one stage. The hosting stage
// feeds it every push, pull and tick in order from a single goroutine;
// implementations are not safe for concurrent use.
type Strategy interface {
	Kind() StrategyKind

	// OnPush records an element arriving from upstream. demanded reports
	// whether downstream had outstanding demand at that moment.
	OnPush(now time.Time, demanded bool)
	// OnPull records fresh downstream demand.
	OnPull(now time.Time)
	// OnTick is invoked every CheckInterval.
	OnTick(now time.Time)
	// OnStop drops an open episode when the stage terminates.
	OnStop(now time.Time)

	// CheckInterval is the timer period. Zero disables the timer.
	CheckInterval() time.Duration
	// Prefetch reports whether the stage should request the next element
	// as soon as the previous one was forwarded.
	Prefetch() bool
	// InBackpressure reports whether an episode is open.
	InBackpressure() bool
}

// NewStrategy builds the strategy selected by cfg for the named stage.
func NewStrategy(cfg Config, stage string, reporter Reporter) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("create %s strategy: %w", cfg.Strategy, err)
	}
	return newStrategy(cfg, stage, reporter), nil
}

// newStrategy expects a validated cfg.
func newStrategy(cfg Config, stage string, reporter Reporter) Strategy {
	if cfg.Strategy == StrategyInstant {
		return NewInstantDetector(stage, reporter)
	}
	return newThresholdDetector(cfg.Threshold, stage, reporter)
}

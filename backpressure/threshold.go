package backpressure

import (
	"fmt"
	"time"
)

// ThresholdDetector declares backpressure only after downstream demand has
// been missing for at least the threshold since the last forwarded
// element. Short demand gaps never open an episode.
type ThresholdDetector struct {
	threshold time.Duration
	interval  time.Duration
	episode   *episode

	awaitingDemand bool
	deadline       time.Time
}

// NewThresholdDetector creates a ThresholdDetector for the named stage.
func NewThresholdDetector(threshold time.Duration, stage string, reporter Reporter) (*ThresholdDetector, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidThreshold, threshold)
	}
	return newThresholdDetector(threshold, stage, reporter), nil
}

func newThresholdDetector(threshold time.Duration, stage string, reporter Reporter) *ThresholdDetector {
	return &ThresholdDetector{
		threshold: threshold,
		interval:  CheckInterval(threshold),
		episode:   newEpisode(stage, StrategyThreshold, reporter),
	}
}

func (d *ThresholdDetector) Kind() StrategyKind { return StrategyThreshold }

// Threshold returns the configured grace period.
func (d *ThresholdDetector) Threshold() time.Duration { return d.threshold }

func (d *ThresholdDetector) OnPush(now time.Time, _ bool) {
	d.awaitingDemand = true
	d.deadline = now.Add(d.threshold)
}

func (d *ThresholdDetector) OnPull(now time.Time) {
	d.awaitingDemand = false
	d.episode.end(now)
}

// OnTick opens an episode when the deadline passed with no demand. A pull
// handled before the tick always wins.
func (d *ThresholdDetector) OnTick(now time.Time) {
	if d.episode.open || !d.awaitingDemand || now.Before(d.deadline) {
		return
	}
	d.episode.begin(now)
}

func (d *ThresholdDetector) OnStop(now time.Time) {
	d.awaitingDemand = false
	d.episode.abandon(now)
}

func (d *ThresholdDetector) CheckInterval() time.Duration { return d.interval }

func (d *ThresholdDetector) Prefetch() bool { return false }

func (d *ThresholdDetector) InBackpressure() bool { return d.episode.open }

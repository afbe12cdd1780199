package backpressure

import "time"

// InstantDetector declares backpressure the moment an element arrives
// while downstream has no outstanding demand. Every demand gap, however
// short, becomes an episode; no timer is needed.
type InstantDetector struct {
	episode *episode
}

// NewInstantDetector creates an InstantDetector for the named stage.
func NewInstantDetector(stage string, reporter Reporter) *InstantDetector {
	return &InstantDetector{episode: newEpisode(stage, StrategyInstant, reporter)}
}

func (d *InstantDetector) Kind() StrategyKind { return StrategyInstant }

func (d *InstantDetector) OnPush(now time.Time, demanded bool) {
	if demanded {
		return
	}
	d.episode.begin(now)
}

func (d *InstantDetector) OnPull(now time.Time) { d.episode.end(now) }

func (d *InstantDetector) OnTick(time.Time) {}

func (d *InstantDetector) OnStop(now time.Time) { d.episode.abandon(now) }

func (d *InstantDetector) CheckInterval() time.Duration { return 0 }

// Prefetch is true: an element must be in flight while downstream is busy
// for a missing demand to be observable at all.
func (d *InstantDetector) Prefetch() bool { return true }

func (d *InstantDetector) InBackpressure() bool { return d.episode.open }

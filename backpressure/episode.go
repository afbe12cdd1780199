package backpressure

import (
	"time"

	"github.com/google/uuid"
)

// episode tracks the single open-or-closed backpressure interval of one
// detector. start is zero iff open is false.
type episode struct {
	stage    string
	strategy StrategyKind
	reporter Reporter

	open  bool
	start time.Time
	id    string
}

func newEpisode(stage string, strategy StrategyKind, reporter Reporter) *episode {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &episode{stage: stage, strategy: strategy, reporter: reporter}
}

// begin opens an episode at now. No-op while one is open.
func (e *episode) begin(now time.Time) {
	if e.open {
		return
	}
	e.open = true
	e.start = now
	e.id = uuid.NewString()
	e.reporter.Report(e.event(EventDetected, now, 0))
}

// end closes the open episode at now and reports its duration.
func (e *episode) end(now time.Time) {
	if !e.open {
		return
	}
	ev := e.event(EventRelieved, now, now.Sub(e.start))
	e.reset()
	e.reporter.Report(ev)
}

// abandon drops the open episode without relieving it.
func (e *episode) abandon(now time.Time) {
	if !e.open {
		return
	}
	ev := e.event(EventAbandoned, now, now.Sub(e.start))
	e.reset()
	e.reporter.Report(ev)
}

func (e *episode) reset() {
	e.open = false
	e.start = time.Time{}
	e.id = ""
}

func (e *episode) event(kind EventKind, at time.Time, d time.Duration) Event {
	return Event{
		Kind:      kind,
		Stage:     e.stage,
		Strategy:  e.strategy,
		EpisodeID: e.id,
		At:        at,
		Duration:  d,
	}
}

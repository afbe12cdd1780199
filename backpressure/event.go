package backpressure

import "time"

// EventKind identifies a transition of a backpressure episode.
type EventKind string

const (
	// EventDetected opens an episode.
	EventDetected EventKind = "detected"
	// EventRelieved closes an episode on fresh downstream demand.
	EventRelieved EventKind = "relieved"
	// EventAbandoned drops an episode still open when the stage stops.
	// It is never logged; reporters use it to release per-episode state.
	EventAbandoned EventKind = "abandoned"
)

// Event describes one episode transition.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Stage     string        `json:"stage"`
	Strategy  StrategyKind  `json:"strategy"`
	EpisodeID string        `json:"episode_id"`
	At        time.Time     `json:"at"`
	Duration  time.Duration `json:"duration,omitempty"` // relieved and abandoned only
}

// Reporter receives episode transitions. Implementations shared between
// stages must be safe for concurrent use.
type Reporter interface {
	Report(ev Event)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(ev Event)

func (f ReporterFunc) Report(ev Event) { f(ev) }

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Report(Event) {}

// MultiReporter fans every event out to its members in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(ev Event) {
	for _, r := range m {
		r.Report(ev)
	}
}

// Multi combines reporters, skipping nils.
func Multi(reporters ...Reporter) Reporter {
	out := make(MultiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

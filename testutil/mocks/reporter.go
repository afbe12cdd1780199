// Package mocks provides test doubles shared across FlowWatch packages.
package mocks

import (
	"sync"

	"github.com/BaSui01/flowwatch/backpressure"
)

// RecordingReporter records every backpressure event it receives.
type RecordingReporter struct {
	mu     sync.Mutex
	events []backpressure.Event
}

// NewRecordingReporter 创建事件记录器
func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{}
}

// Report implements backpressure.Reporter.
func (r *RecordingReporter) Report(ev backpressure.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of all recorded events.
func (r *RecordingReporter) Events() []backpressure.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]backpressure.Event(nil), r.events...)
}

// Kinds returns the kinds of all recorded events in order.
func (r *RecordingReporter) Kinds() []backpressure.EventKind {
	events := r.Events()
	kinds := make([]backpressure.EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// Count returns how many events of kind were recorded.
func (r *RecordingReporter) Count(kind backpressure.EventKind) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Alternates reports whether every detected event is followed by exactly
// one relieved or abandoned event of the same episode before the next
// detection.
func (r *RecordingReporter) Alternates() bool {
	open := ""
	for _, ev := range r.Events() {
		switch ev.Kind {
		case backpressure.EventDetected:
			if open != "" || ev.EpisodeID == "" {
				return false
			}
			open = ev.EpisodeID
		case backpressure.EventRelieved, backpressure.EventAbandoned:
			if open == "" || ev.EpisodeID != open {
				return false
			}
			open = ""
		}
	}
	return true
}

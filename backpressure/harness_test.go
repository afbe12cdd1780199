package backpressure_test

import (
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/flowwatch/backpressure"
	"github.com/BaSui01/flowwatch/stream"
	"github.com/BaSui01/flowwatch/testutil"
	"github.com/BaSui01/flowwatch/testutil/mocks"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type pendingEmit[T any] struct {
	elem    T
	andThen func()
}

// fakeContext is a synchronous StageContext driven step by step from the
// test goroutine, with timers on a ManualClock.
type fakeContext[T any] struct {
	clock *testutil.ManualClock

	demanded   bool
	pulled     bool
	closed     bool
	completing bool
	stopped    bool
	failed     error

	pushed  []T
	pending []pendingEmit[T]
	pulls   int
	timers  map[string]func()
	onTimer func(key string)
}

func (f *fakeContext[T]) Push(elem T) {
	if !f.demanded {
		panic("push without demand")
	}
	f.demanded = false
	f.pushed = append(f.pushed, elem)
}

func (f *fakeContext[T]) Emit(elem T, andThen func()) {
	if f.demanded && len(f.pending) == 0 {
		f.Push(elem)
		if andThen != nil {
			andThen()
		}
		return
	}
	f.pending = append(f.pending, pendingEmit[T]{elem: elem, andThen: andThen})
}

func (f *fakeContext[T]) Pull() {
	if f.pulled || f.closed {
		panic("illegal pull")
	}
	f.pulled = true
	f.pulls++
}

func (f *fakeContext[T]) IsAvailable() bool   { return f.demanded }
func (f *fakeContext[T]) HasBeenPulled() bool { return f.pulled }
func (f *fakeContext[T]) IsClosed() bool      { return f.closed }

func (f *fakeContext[T]) CompleteStage() {
	f.closed = true
	f.pulled = false
	if len(f.pending) > 0 {
		f.completing = true
		return
	}
	f.stopped = true
}

func (f *fakeContext[T]) FailStage(err error) {
	f.closed = true
	f.pulled = false
	f.pending = nil
	f.failed = err
	f.stopped = true
}

func (f *fakeContext[T]) ScheduleRepeatedly(key string, interval time.Duration) {
	f.CancelTimer(key)
	f.timers[key] = f.clock.ScheduleRepeatedly(interval, func() { f.onTimer(key) })
}

func (f *fakeContext[T]) CancelTimer(key string) {
	if cancel, ok := f.timers[key]; ok {
		cancel()
		delete(f.timers, key)
	}
}

func (f *fakeContext[T]) Now() time.Time      { return f.clock.Now() }
func (f *fakeContext[T]) Name() string        { return "fake" }
func (f *fakeContext[T]) Logger() *zap.Logger { return zap.NewNop() }

// testingT is satisfied by *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

// harness hosts one backpressure logic on a fakeContext.
type harness[T any] struct {
	t        testingT
	clock    *testutil.ManualClock
	sc       *fakeContext[T]
	logic    stream.Logic[T]
	reporter *mocks.RecordingReporter
	stopped  bool
}

func newHarness[T any](t testingT, cfg backpressure.Config) *harness[T] {
	t.Helper()
	reporter := mocks.NewRecordingReporter()
	stage, err := backpressure.NewStage[T](cfg, reporter)
	require.NoError(t, err)

	clock := testutil.NewManualClock(epoch)
	h := &harness[T]{
		t:        t,
		clock:    clock,
		logic:    stage.CreateLogic(stream.Attributes{}),
		reporter: reporter,
	}
	h.sc = &fakeContext[T]{
		clock:  clock,
		timers: make(map[string]func()),
		onTimer: func(key string) {
			if !h.stopped {
				h.logic.OnTimer(h.sc, key)
			}
		},
	}
	h.logic.PreStart(h.sc)
	return h
}

// demand signals downstream demand, flushing a pending emission first.
func (h *harness[T]) demand() {
	h.t.Helper()
	require.False(h.t, h.sc.demanded, "demand already outstanding")
	h.sc.demanded = true
	if len(h.sc.pending) > 0 {
		head := h.sc.pending[0]
		h.sc.pending = h.sc.pending[1:]
		h.sc.Push(head.elem)
		if head.andThen != nil {
			head.andThen()
		}
		if h.sc.completing && len(h.sc.pending) == 0 {
			h.sc.stopped = true
		}
	} else if !h.sc.completing {
		h.logic.OnPull(h.sc)
	}
	h.afterStep()
}

// deliver answers the outstanding upstream request with elem.
func (h *harness[T]) deliver(elem T) {
	h.t.Helper()
	require.True(h.t, h.sc.pulled, "deliver without upstream request")
	h.sc.pulled = false
	h.logic.OnPush(h.sc, elem)
	h.afterStep()
}

func (h *harness[T]) finishUpstream() {
	h.sc.closed = true
	h.sc.pulled = false
	h.logic.OnUpstreamFinish(h.sc)
	h.afterStep()
}

func (h *harness[T]) failUpstream(err error) {
	h.sc.closed = true
	h.sc.pulled = false
	h.logic.OnUpstreamFailure(h.sc, err)
	h.afterStep()
}

func (h *harness[T]) cancelDownstream() {
	h.sc.demanded = false
	h.sc.pending = nil
	h.logic.OnDownstreamFinish(h.sc)
	h.afterStep()
}

func (h *harness[T]) advance(d time.Duration) {
	h.clock.Advance(d)
	h.afterStep()
}

func (h *harness[T]) afterStep() {
	if h.sc.stopped && !h.stopped {
		h.stopped = true
		for key := range h.sc.timers {
			h.sc.CancelTimer(key)
		}
		h.logic.PostStop(h.sc)
	}
}

func thresholdConfig(threshold time.Duration) backpressure.Config {
	cfg := backpressure.DefaultConfig()
	cfg.Threshold = threshold
	return cfg
}

func instantConfig() backpressure.Config {
	cfg := backpressure.DefaultConfig()
	cfg.Strategy = backpressure.StrategyInstant
	return cfg
}

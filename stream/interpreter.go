package stream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type eventKind int

const (
	evPush eventKind = iota
	evUpstreamFinish
	evUpstreamFailure
	evPull
	evDownstreamFinish
	evTimer
)

type event[T any] struct {
	kind eventKind
	elem T
	err  error
	key  string
}

type emission[T any] struct {
	elem    T
	andThen func()
}

type viaSource[T any] struct {
	upstream Source[T]
	stage    Stage[T]
	attrs    Attributes
}

// Via attaches stage after up. The stage is materialized, and its
// interpreter started, every time the returned Source is subscribed.
func Via[T any](up Source[T], stage Stage[T], opts ...Option) Source[T] {
	return &viaSource[T]{upstream: up, stage: stage, attrs: newAttributes(opts)}
}

func (v *viaSource[T]) Subscribe(ctx context.Context, sub Subscriber[T]) Subscription {
	name := v.attrs.NameOr(v.stage.Name())
	attrs := v.attrs
	attrs.name = name

	in := &interpreter[T]{
		name:       name,
		logger:     attrs.Logger().With(zap.String("component", "stream"), zap.String("stage", name)),
		clock:      attrs.Clock(),
		scheduler:  attrs.scheduler,
		downstream: sub,
		mailbox:    make(chan event[T], attrs.mailbox),
		control:    make(chan event[T], 4),
		done:       make(chan struct{}),
		timers:     make(map[string]func()),
	}
	if in.scheduler == nil {
		in.scheduler = TickerScheduler()
	}
	in.logic = v.stage.CreateLogic(attrs)
	in.upstream = v.upstream.Subscribe(ctx, upstreamSubscriber[T]{in: in})

	go in.run(ctx)
	return in
}

// upstreamSubscriber posts upstream signals into the interpreter mailbox.
type upstreamSubscriber[T any] struct {
	in *interpreter[T]
}

func (u upstreamSubscriber[T]) OnNext(elem T) { u.in.post(event[T]{kind: evPush, elem: elem}) }
func (u upstreamSubscriber[T]) OnComplete()   { u.in.post(event[T]{kind: evUpstreamFinish}) }
func (u upstreamSubscriber[T]) OnError(err error) {
	u.in.post(event[T]{kind: evUpstreamFailure, err: err})
}

// interpreter hosts one materialized Logic. Every field below the mailbox
// is owned by the run goroutine.
type interpreter[T any] struct {
	name      string
	logger    *zap.Logger
	clock     Clock
	scheduler Scheduler
	logic     Logic[T]

	upstream   Subscription
	downstream Subscriber[T]

	mailbox  chan event[T]
	control  chan event[T]
	done     chan struct{}
	stopOnce sync.Once

	inPulled    bool
	inClosed    bool
	outDemanded bool
	outClosed   bool
	pending     []emission[T]
	completing  bool
	stopped     bool
	timers      map[string]func()
}

// Request implements Subscription for the downstream side. It may be
// called from inside OnNext on the interpreter goroutine.
func (in *interpreter[T]) Request() { in.signal(event[T]{kind: evPull}) }

// Cancel implements Subscription for the downstream side.
func (in *interpreter[T]) Cancel() { in.signal(event[T]{kind: evDownstreamFinish}) }

// signal posts a downstream event. control holds at most one request and
// the cancellations, so it never fills up.
func (in *interpreter[T]) signal(ev event[T]) {
	select {
	case in.control <- ev:
	case <-in.done:
	}
}

func (in *interpreter[T]) post(ev event[T]) {
	select {
	case in.mailbox <- ev:
	case <-in.done:
	}
}

// postTimer drops the tick when the mailbox is full; a due deadline is
// still observed on the next tick.
func (in *interpreter[T]) postTimer(key string) {
	select {
	case in.mailbox <- event[T]{kind: evTimer, key: key}:
	case <-in.done:
	default:
	}
}

func (in *interpreter[T]) run(ctx context.Context) {
	defer in.shutdown()

	in.logic.PreStart(in)
	for !in.stopped {
		// downstream demand is handled before anything it raced with
		select {
		case ev := <-in.control:
			in.dispatch(ev)
			continue
		default:
		}
		select {
		case <-ctx.Done():
			in.logger.Debug("stage interrupted", zap.Error(ctx.Err()))
			in.FailStage(ctx.Err())
		case ev := <-in.control:
			in.dispatch(ev)
		case ev := <-in.mailbox:
			in.dispatch(ev)
		}
	}
}

func (in *interpreter[T]) dispatch(ev event[T]) {
	switch ev.kind {
	case evPush:
		if in.inClosed {
			return
		}
		in.inPulled = false
		in.logic.OnPush(in, ev.elem)
	case evUpstreamFinish:
		if in.inClosed {
			return
		}
		in.inClosed = true
		in.inPulled = false
		in.logic.OnUpstreamFinish(in)
	case evUpstreamFailure:
		if in.inClosed {
			return
		}
		in.inClosed = true
		in.inPulled = false
		in.logic.OnUpstreamFailure(in, ev.err)
	case evPull:
		if in.outClosed {
			return
		}
		in.outDemanded = true
		if len(in.pending) > 0 {
			in.flush()
			return
		}
		if !in.completing {
			in.logic.OnPull(in)
		}
	case evDownstreamFinish:
		if in.outClosed {
			return
		}
		in.outClosed = true
		in.outDemanded = false
		in.pending = nil
		in.logic.OnDownstreamFinish(in)
	case evTimer:
		if _, ok := in.timers[ev.key]; ok {
			in.logic.OnTimer(in, ev.key)
		}
	}
}

// flush delivers the head of the emission queue on fresh demand.
func (in *interpreter[T]) flush() {
	head := in.pending[0]
	in.pending = in.pending[1:]
	in.push(head.elem)
	if head.andThen != nil {
		head.andThen()
	}
	if in.completing && len(in.pending) == 0 {
		in.completeDownstream()
	}
}

func (in *interpreter[T]) push(elem T) {
	in.outDemanded = false
	in.downstream.OnNext(elem)
}

// =============================================================================
// 🎛️ StageContext
// =============================================================================

func (in *interpreter[T]) Push(elem T) {
	if in.outClosed || in.stopped {
		return
	}
	if !in.outDemanded {
		panic("stream: push without downstream demand in stage " + in.name)
	}
	in.push(elem)
}

func (in *interpreter[T]) Emit(elem T, andThen func()) {
	if in.outClosed || in.stopped {
		return
	}
	if in.outDemanded && len(in.pending) == 0 {
		in.push(elem)
		if andThen != nil {
			andThen()
		}
		return
	}
	in.pending = append(in.pending, emission[T]{elem: elem, andThen: andThen})
}

func (in *interpreter[T]) Pull() {
	if in.inClosed {
		panic("stream: pull on closed inlet in stage " + in.name)
	}
	if in.inPulled {
		panic("stream: pull while a request is in flight in stage " + in.name)
	}
	in.inPulled = true
	in.upstream.Request()
}

func (in *interpreter[T]) IsAvailable() bool   { return in.outDemanded }
func (in *interpreter[T]) HasBeenPulled() bool { return in.inPulled }
func (in *interpreter[T]) IsClosed() bool      { return in.inClosed }

func (in *interpreter[T]) CompleteStage() {
	if in.stopped {
		return
	}
	in.cancelUpstream()
	if len(in.pending) > 0 && !in.outClosed {
		in.completing = true
		return
	}
	in.completeDownstream()
}

func (in *interpreter[T]) completeDownstream() {
	if !in.outClosed {
		in.outClosed = true
		in.downstream.OnComplete()
	}
	in.stopped = true
}

func (in *interpreter[T]) FailStage(err error) {
	if in.stopped {
		return
	}
	in.cancelUpstream()
	in.pending = nil
	if !in.outClosed {
		in.outClosed = true
		in.downstream.OnError(err)
	}
	in.stopped = true
}

func (in *interpreter[T]) cancelUpstream() {
	if !in.inClosed {
		in.inClosed = true
		in.inPulled = false
		in.upstream.Cancel()
	}
}

func (in *interpreter[T]) ScheduleRepeatedly(key string, interval time.Duration) {
	in.CancelTimer(key)
	in.timers[key] = in.scheduler.ScheduleRepeatedly(interval, func() { in.postTimer(key) })
}

func (in *interpreter[T]) CancelTimer(key string) {
	if cancel, ok := in.timers[key]; ok {
		cancel()
		delete(in.timers, key)
	}
}

func (in *interpreter[T]) Now() time.Time      { return in.clock.Now() }
func (in *interpreter[T]) Name() string        { return in.name }
func (in *interpreter[T]) Logger() *zap.Logger { return in.logger }

func (in *interpreter[T]) shutdown() {
	for key := range in.timers {
		in.CancelTimer(key)
	}
	in.logic.PostStop(in)
	in.stopOnce.Do(func() { close(in.done) })
	in.logger.Debug("stage stopped")
}

package stream

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrExhausted is returned by a FromFunc generator when it has no more elements.
	ErrExhausted = errors.New("stream: source exhausted")
	// ErrStop is returned by a Sink to cancel the pipeline without failing it.
	ErrStop = errors.New("stream: stop requested by sink")
)

// =============================================================================
// 🔌 Demand protocol
// =============================================================================

// Subscriber receives the signals of a Source. OnNext is only ever called
// in response to a Subscription.Request; OnComplete and OnError may arrive
// at any time and are terminal.
type Subscriber[T any] interface {
	OnNext(elem T)
	OnComplete()
	OnError(err error)
}

// Subscription is the downstream handle on a running Source.
//
// At most one request may be outstanding at a time. Both methods must not
// block and are safe to call after the Source terminated.
type Subscription interface {
	// Request signals demand for exactly one element.
	Request()
	// Cancel stops the Source. No further signals are delivered.
	Cancel()
}

// Source is a demand-driven producer of elements.
type Source[T any] interface {
	Subscribe(ctx context.Context, sub Subscriber[T]) Subscription
}

// =============================================================================
// 🧩 Stages
// =============================================================================

// Stage is a single-input/single-output processing step. A fresh Logic is
// created for every materialization.
type Stage[T any] interface {
	// Name is the default display name of the stage.
	Name() string
	CreateLogic(attrs Attributes) Logic[T]
}

// Logic holds the handlers of a materialized Stage. All handlers of one
// Logic are invoked sequentially from a single goroutine.
type Logic[T any] interface {
	PreStart(sc StageContext[T])
	OnPush(sc StageContext[T], elem T)
	OnPull(sc StageContext[T])
	OnUpstreamFinish(sc StageContext[T])
	OnUpstreamFailure(sc StageContext[T], err error)
	OnDownstreamFinish(sc StageContext[T])
	OnTimer(sc StageContext[T], key string)
	PostStop(sc StageContext[T])
}

// StageContext is the host facility available to a Logic while it runs.
type StageContext[T any] interface {
	// Push forwards elem downstream. Requires IsAvailable.
	Push(elem T)
	// Emit pushes elem as soon as downstream demands it and then runs
	// andThen (which may be nil). Emissions are delivered in order.
	Emit(elem T, andThen func())
	// Pull requests the next element from upstream. Requires
	// !HasBeenPulled and !IsClosed.
	Pull()

	// IsAvailable reports whether downstream has outstanding demand.
	IsAvailable() bool
	// HasBeenPulled reports whether an upstream request is in flight.
	HasBeenPulled() bool
	// IsClosed reports whether upstream has completed or failed.
	IsClosed() bool

	// CompleteStage cancels upstream and completes downstream once all
	// pending emissions have been delivered.
	CompleteStage()
	// FailStage cancels upstream and fails downstream with err.
	FailStage(err error)

	// ScheduleRepeatedly invokes OnTimer with key every interval until
	// CancelTimer or stage stop. Rescheduling a key replaces it.
	ScheduleRepeatedly(key string, interval time.Duration)
	CancelTimer(key string)

	Now() time.Time
	Name() string
	Logger() *zap.Logger
}

// Attributes carry the naming and runtime facilities resolved when a stage
// is attached.
type Attributes struct {
	name      string
	logger    *zap.Logger
	clock     Clock
	scheduler Scheduler
	mailbox   int
}

// NameOr returns the attached name, or fallback when none was set.
func (a Attributes) NameOr(fallback string) string {
	if a.name != "" {
		return a.name
	}
	return fallback
}

// Logger returns the attached logger, never nil.
func (a Attributes) Logger() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// Clock returns the attached clock, never nil.
func (a Attributes) Clock() Clock {
	if a.clock == nil {
		return SystemClock()
	}
	return a.clock
}

// Option configures the Attributes of an attached stage.
type Option func(*Attributes)

// WithName overrides the display name of the stage.
func WithName(name string) Option {
	return func(a *Attributes) { a.name = name }
}

// WithLogger sets the logger handed to the stage.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Attributes) { a.logger = logger }
}

// WithClock sets the time source of the stage.
func WithClock(c Clock) Option {
	return func(a *Attributes) { a.clock = c }
}

// WithScheduler sets the scheduler backing ScheduleRepeatedly.
func WithScheduler(s Scheduler) Option {
	return func(a *Attributes) { a.scheduler = s }
}

// WithMailboxSize sets the event queue capacity of the stage interpreter.
func WithMailboxSize(n int) Option {
	return func(a *Attributes) { a.mailbox = n }
}

func newAttributes(opts []Option) Attributes {
	a := Attributes{mailbox: 16}
	for _, opt := range opts {
		opt(&a)
	}
	if a.mailbox < 4 {
		a.mailbox = 4
	}
	return a
}

package stream

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Sink consumes the elements of a pipeline, one at a time. The next element
// is only requested once Consume returns.
type Sink[T any] interface {
	Consume(ctx context.Context, elem T) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[T any] func(ctx context.Context, elem T) error

// Consume calls f(ctx, elem).
func (f SinkFunc[T]) Consume(ctx context.Context, elem T) error { return f(ctx, elem) }

// InlineFunc adapts a non-blocking function to a Sink that Run calls on the
// goroutine delivering the element. The next element is requested before
// OnNext returns, so a sink that keeps up always has demand outstanding.
// f must not block.
type InlineFunc[T any] func(ctx context.Context, elem T) error

// Consume calls f(ctx, elem).
func (f InlineFunc[T]) Consume(ctx context.Context, elem T) error { return f(ctx, elem) }

// Ignore returns a Sink discarding every element.
func Ignore[T any]() Sink[T] {
	return InlineFunc[T](func(context.Context, T) error { return nil })
}

// Collect returns a Sink appending every element to dst. dst must only be
// read after Run returned.
func Collect[T any](dst *[]T) Sink[T] {
	return InlineFunc[T](func(_ context.Context, elem T) error {
		*dst = append(*dst, elem)
		return nil
	})
}

type signalKind int

const (
	sigNext signalKind = iota
	sigComplete
	sigError
	sigSinkError
)

type signal[T any] struct {
	kind signalKind
	elem T
	err  error
}

// sinkSubscriber buffers the signals of the outermost Source. The demand
// protocol bounds it to one element plus one terminal signal; the spare
// capacity covers signals racing a cancellation.
type sinkSubscriber[T any] struct {
	signals chan signal[T]

	// set for InlineFunc sinks; only touched by the delivering goroutine
	ctx          context.Context
	inline       InlineFunc[T]
	subscription Subscription
	failed       bool
}

func (s *sinkSubscriber[T]) OnNext(elem T) {
	if s.inline == nil {
		s.signals <- signal[T]{kind: sigNext, elem: elem}
		return
	}
	if s.failed {
		return
	}
	if err := s.inline(s.ctx, elem); err != nil {
		s.failed = true
		s.signals <- signal[T]{kind: sigSinkError, err: err}
		return
	}
	s.subscription.Request()
}

func (s *sinkSubscriber[T]) OnComplete()       { s.signals <- signal[T]{kind: sigComplete} }
func (s *sinkSubscriber[T]) OnError(err error) { s.signals <- signal[T]{kind: sigError, err: err} }

// Run subscribes sink to src and drives the pipeline until it terminates.
//
// It returns nil on completion or when the sink returns ErrStop, the
// upstream error verbatim on failure, the sink error when Consume fails,
// and ctx.Err() when ctx is cancelled first.
func Run[T any](ctx context.Context, src Source[T], sink Sink[T]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := &sinkSubscriber[T]{signals: make(chan signal[T], 4), ctx: ctx}
	if inline, ok := sink.(InlineFunc[T]); ok {
		sub.inline = inline
	}
	subscription := src.Subscribe(ctx, sub)
	sub.subscription = subscription

	subscription.Request()
	for {
		var sig signal[T]
		select {
		case <-ctx.Done():
			subscription.Cancel()
			return ctx.Err()
		case sig = <-sub.signals:
		}

		switch sig.kind {
		case sigComplete:
			return nil
		case sigError:
			return sig.err
		case sigSinkError:
			return stopWith(subscription, sig.err)
		}

		if err := sink.Consume(ctx, sig.elem); err != nil {
			return stopWith(subscription, err)
		}
		subscription.Request()
	}
}

// stopWith cancels upstream after the sink failed with err.
func stopWith(subscription Subscription, err error) error {
	subscription.Cancel()
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// Pipeline is a runnable source/sink pair, used with RunAll.
type Pipeline func(ctx context.Context) error

// Bind returns a Pipeline running src into sink.
func Bind[T any](src Source[T], sink Sink[T]) Pipeline {
	return func(ctx context.Context) error { return Run(ctx, src, sink) }
}

// RunAll runs pipelines concurrently. The first failure cancels the others
// and is returned.
func RunAll(ctx context.Context, pipelines ...Pipeline) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range pipelines {
		g.Go(func() error { return p(gctx) })
	}
	return g.Wait()
}

package stream

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// Generator produces the next element of a FromFunc source. It returns
// ErrExhausted when there are no more elements; any other error fails
// the source.
type Generator[T any] func(ctx context.Context) (T, error)

// funcSource calls newGen once per subscription.
type funcSource[T any] struct {
	newGen func() Generator[T]
}

// FromFunc creates a Source driven by next. The source reads one element
// ahead so that exhaustion is signalled right after the last element,
// without waiting for another request. All subscriptions share next.
func FromFunc[T any](next Generator[T]) Source[T] {
	return &funcSource[T]{newGen: func() Generator[T] { return next }}
}

// FromSlice creates a Source emitting items in order. Every subscription
// replays the full slice.
func FromSlice[T any](items []T) Source[T] {
	snapshot := append([]T(nil), items...)
	return &funcSource[T]{newGen: func() Generator[T] {
		rest := snapshot
		return func(context.Context) (T, error) {
			var zero T
			if len(rest) == 0 {
				return zero, ErrExhausted
			}
			elem := rest[0]
			rest = rest[1:]
			return elem, nil
		}
	}}
}

// FromChannel creates a Source emitting everything received on ch until
// it is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	return FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case elem, ok := <-ch:
			if !ok {
				return zero, ErrExhausted
			}
			return elem, nil
		}
	})
}

// Failed creates a Source that fails with err as soon as it is subscribed.
func Failed[T any](err error) Source[T] {
	return FromFunc(func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// Throttle paces next so that it produces at most at the limiter's rate.
func Throttle[T any](limiter *rate.Limiter, next Generator[T]) Generator[T] {
	return func(ctx context.Context) (T, error) {
		if err := limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return next(ctx)
	}
}

func (s *funcSource[T]) Subscribe(ctx context.Context, sub Subscriber[T]) Subscription {
	ctx, cancel := context.WithCancel(ctx)
	p := &producer[T]{
		next:     s.newGen(),
		sub:      sub,
		requests: make(chan struct{}, 1),
		cancel:   cancel,
	}
	go p.run(ctx)
	return p
}

// producer runs one subscription of a funcSource.
type producer[T any] struct {
	next     Generator[T]
	sub      Subscriber[T]
	requests chan struct{}
	cancel   context.CancelFunc
	once     sync.Once
}

func (p *producer[T]) Request() {
	select {
	case p.requests <- struct{}{}:
	default:
	}
}

func (p *producer[T]) Cancel() {
	p.once.Do(p.cancel)
}

func (p *producer[T]) run(ctx context.Context) {
	defer p.Cancel()

	elem, err := p.next(ctx)
	for {
		if err != nil {
			p.finish(ctx, err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-p.requests:
		}
		p.sub.OnNext(elem)
		elem, err = p.next(ctx)
	}
}

func (p *producer[T]) finish(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	if errors.Is(err, ErrExhausted) {
		p.sub.OnComplete()
		return
	}
	p.sub.OnError(err)
}

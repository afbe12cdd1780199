package stream

import (
	"sync"
	"time"
)

// Clock reads the current time.
type Clock interface {
	Now() time.Time
}

// Scheduler invokes fn every interval until the returned cancel func is
// called. fn runs on a scheduler goroutine and must not block.
type Scheduler interface {
	ScheduleRepeatedly(interval time.Duration, fn func()) (cancel func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type tickerScheduler struct{}

// TickerScheduler returns a Scheduler backed by time.Ticker.
func TickerScheduler() Scheduler { return tickerScheduler{} }

func (tickerScheduler) ScheduleRepeatedly(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

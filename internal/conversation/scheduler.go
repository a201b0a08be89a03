package conversation

import (
	"sync"
	"time"
)

// Scheduler calls tick at a fixed interval until tick returns false or Cancel is called.
// Scheduling again replaces the previous run.
type Scheduler interface {
	Schedule(tick func() bool)
	Cancel()
}

// IntervalScheduler runs tick on its own goroutine driven by a time.Ticker.
type IntervalScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &IntervalScheduler{interval: interval}
}

func (s *IntervalScheduler) Schedule(tick func() bool) {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if !tick() {
					s.release(stop)
					return
				}
			}
		}
	}()
}

func (s *IntervalScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *IntervalScheduler) release(stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == stop {
		s.stop = nil
	}
}

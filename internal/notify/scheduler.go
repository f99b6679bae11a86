package notify

import (
	"sort"
	"time"
)

// RealScheduler fires on the runtime timer goroutine. Only safe when the
// notifier is not shared; use LoopScheduler inside the client.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Poster is satisfied by *eventloop.Loop.
type Poster interface {
	Post(fn func()) bool
}

// LoopScheduler delivers expirations through the event loop so dismissals run
// on the same goroutine as every other handler.
type LoopScheduler struct {
	Loop Poster
}

func (s LoopScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { s.Loop.Post(f) })
}

// ManualScheduler is a fake clock driven by Advance.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.seq++
	t := &manualTimer{at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock and runs due timers in deadline order. It returns
// how many fired.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.now += d
	fired := 0
	for {
		due := s.due()
		if due == nil {
			return fired
		}
		due.fired = true
		fired++
		due.f()
	}
}

// Pending counts timers neither fired nor stopped.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) due() *manualTimer {
	var ready []*manualTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && t.at <= s.now {
			ready = append(ready, t)
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].at == ready[j].at {
			return ready[i].seq < ready[j].seq
		}
		return ready[i].at < ready[j].at
	})
	return ready[0]
}

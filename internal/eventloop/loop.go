// Package eventloop serializes every client reaction on one goroutine.
// Producers (socket reader, terminal input, timers) only Post closures; the
// closures run to completion in arrival order, so state owned by handlers
// needs no locking.
package eventloop

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("event loop stopped")

const defaultInbox = 64

type Loop struct {
	inbox  chan func()
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		inbox:  make(chan func(), defaultInbox),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post enqueues fn. It blocks while the inbox is full and returns false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run processes events until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return ErrStopped
		case fn := <-l.inbox:
			l.dispatch(fn)
		}
	}
}

// Stop ends Run. Events still queued are discarded.
func (l *Loop) Stop() { l.once.Do(func() { close(l.done) }) }

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event_panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

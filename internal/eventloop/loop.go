// Package eventloop implements the single goroutine that owns all
// compositor state. Other goroutines never touch that state directly.
// Instead, they post closures to the loop, which runs them in order.
package eventloop

import (
	"context"
	"errors"
	"sync"

	"deedles.dev/xsync"
	"github.com/rs/zerolog"
)

// ErrStopped is returned when work is given to a loop that has been
// stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop is an event loop. Its zero value is not usable. Use New instead.
type Loop struct {
	// m guards sends to the queue against Stop, which closes the
	// queue's push channel.
	m     sync.RWMutex
	done  chan struct{}
	queue xsync.Queue[func() error]
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Loop {
	return &Loop{
		done: make(chan struct{}),
		log:  log,
	}
}

// Post queues f to be run on the loop. It may be called from any
// goroutine. Errors returned by f are logged.
func (l *Loop) Post(f func() error) error {
	l.m.RLock()
	defer l.m.RUnlock()

	if l.stopped() {
		return ErrStopped
	}
	l.queue.Push() <- f
	return nil
}

// Do is like Post but for functions that can't fail.
func (l *Loop) Do(f func()) error {
	return l.Post(func() error { f(); return nil })
}

// Run runs queued functions on the calling goroutine until ctx is
// canceled or the loop is stopped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case ev, ok := <-l.queue.Pop():
			if !ok {
				return nil
			}
			err := ev()
			if err != nil {
				l.log.Error().Err(err).Msg("event failed")
			}
		}
	}
}

// Flush runs the functions that are currently queued, if any, without
// waiting for more. It must not be called concurrently with Run.
func (l *Loop) Flush() error {
	var errs []error
	for {
		select {
		case ev, ok := <-l.queue.Pop():
			if !ok {
				return errors.Join(errs...)
			}
			err := ev()
			if err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// Stop stops the loop. Functions that are still queued are dropped.
func (l *Loop) Stop() {
	l.m.Lock()
	defer l.m.Unlock()

	if l.stopped() {
		return
	}
	close(l.done)
	l.queue.Stop()
}

// Done returns a channel that is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

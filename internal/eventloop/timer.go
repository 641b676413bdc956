package eventloop

import (
	"errors"
	"time"
)

// ErrTimerRemoved is returned when updating a timer that was removed.
var ErrTimerRemoved = errors.New("timer removed")

// Timer is a one-shot timer whose handler runs on the loop. A Timer is
// rearmed, never duplicated: every call to Update cancels whatever was
// previously scheduled. Its methods must be called on the loop.
type Timer struct {
	loop    *Loop
	handler func()
	gen     uint64
	t       *time.Timer
	removed bool
}

// AddTimer creates a disarmed timer that calls h on the loop when it
// fires.
func (l *Loop) AddTimer(h func()) *Timer {
	return &Timer{
		loop:    l,
		handler: h,
	}
}

// Update cancels the timer if it is armed and, if timeout is positive,
// arms it to fire after timeout.
func (t *Timer) Update(timeout time.Duration) error {
	if t.removed {
		return ErrTimerRemoved
	}
	if t.loop.stopped() {
		return ErrStopped
	}

	t.cancel()
	if timeout <= 0 {
		return nil
	}

	gen := t.gen
	t.t = time.AfterFunc(timeout, func() {
		t.loop.Do(func() { t.fire(gen) })
	})
	return nil
}

// Remove disarms the timer permanently.
func (t *Timer) Remove() {
	t.cancel()
	t.removed = true
}

func (t *Timer) cancel() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.gen++
}

func (t *Timer) fire(gen uint64) {
	if t.removed || (gen != t.gen) {
		return
	}
	t.t = nil
	t.handler()
}

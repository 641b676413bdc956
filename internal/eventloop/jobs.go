package eventloop

import (
	"errors"
	"sync"
)

var (
	ErrStarted    = errors.New("job executor already started")
	ErrNotStarted = errors.New("job executor not started")
)

type job struct {
	run  func() error
	done func(error)
}

// Jobs runs blocking work, such as file I/O and pixel conversion, off of
// the loop. Completion is always reported back on the loop.
type Jobs struct {
	loop    *Loop
	workers int
	queue   chan job

	started bool
	stop    chan struct{}
	close   sync.Once
	wg      sync.WaitGroup
}

// NewJobs creates an executor with the given number of workers. It
// must be started before jobs are submitted.
func NewJobs(loop *Loop, workers int) *Jobs {
	if workers < 1 {
		workers = 1
	}

	return &Jobs{
		loop:    loop,
		workers: workers,
		queue:   make(chan job, 64),
		stop:    make(chan struct{}),
	}
}

// Start starts the workers. It may only be called once.
func (j *Jobs) Start() error {
	if j.started {
		return ErrStarted
	}
	j.started = true

	j.wg.Add(j.workers)
	for range j.workers {
		go j.work()
	}
	return nil
}

func (j *Jobs) work() {
	defer j.wg.Done()

	for {
		select {
		case <-j.stop:
			return
		case job := <-j.queue:
			err := job.run()
			if job.done != nil {
				j.loop.Do(func() { job.done(err) })
			}
		}
	}
}

// Submit queues run to be executed by a worker. If done is not nil, it
// is called on the loop with run's result. Submit blocks only if every
// worker is busy and the queue is full.
func (j *Jobs) Submit(run func() error, done func(error)) error {
	if !j.started {
		return ErrNotStarted
	}

	select {
	case <-j.stop:
		return ErrStopped
	default:
	}

	select {
	case <-j.stop:
		return ErrStopped
	case j.queue <- job{run: run, done: done}:
		return nil
	}
}

// Stop stops the workers and waits for running jobs to return. Queued
// jobs that have not started are dropped.
func (j *Jobs) Stop() {
	j.close.Do(func() { close(j.stop) })
	j.wg.Wait()
}

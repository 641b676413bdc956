package eventloop

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestJobsDoubleStart(t *testing.T) {
	jobs := NewJobs(New(zerolog.Nop()), 1)
	defer jobs.Stop()

	err := jobs.Start()
	if err != nil {
		t.Fatal(err)
	}
	err = jobs.Start()
	if !errors.Is(err, ErrStarted) {
		t.Fatalf("expected ErrStarted, got %v", err)
	}
}

func TestJobsNotStarted(t *testing.T) {
	jobs := NewJobs(New(zerolog.Nop()), 1)
	err := jobs.Submit(func() error { return nil }, nil)
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestJobsSubmit(t *testing.T) {
	l, stop := run(t)
	defer stop()

	jobs := NewJobs(l, 2)
	jobs.Start()
	defer jobs.Stop()

	e := errors.New("job failed")
	ran := make(chan struct{}, 1)
	result := make(chan error, 1)
	err := jobs.Submit(
		func() error { ran <- struct{}{}; return e },
		func(err error) { result <- err },
	)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	select {
	case err := <-result:
		if !errors.Is(err, e) {
			t.Fatalf("expected %v, got %v", e, err)
		}
	case <-time.After(time.Second):
		t.Fatal("completion was not delivered")
	}
}

func TestJobsSubmitAfterStop(t *testing.T) {
	jobs := NewJobs(New(zerolog.Nop()), 1)
	jobs.Start()
	jobs.Stop()

	err := jobs.Submit(func() error { return nil }, nil)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

// Package ioloop hosts a background job loop on a dedicated goroutine.
// Jobs submitted to the loop execute one at a time, in order, independent
// of the callers' goroutines. The loop stays alive while its queue is
// empty and exits only once Shutdown releases it and queued work drains.
package ioloop

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/lc/hostlook/internal/log"
)

const (
	// Small buffer so Submit doesn't block the caller while the worker
	// is busy with the previous job.
	_jobBufferSize = 8
)

// Loop runs submitted jobs on a single worker goroutine.
//
// Lifecycle: Start exactly once, Submit any number of times, Shutdown once
// (extra Shutdown calls are no-ops). Start after Shutdown, double Start and
// Submit outside the running window are programming errors and panic. A
// panic inside a job is not recovered and takes the process down; the loop
// is a best-effort runtime, not a supervisor.
type Loop struct {
	jobs chan func()
	wg   sync.WaitGroup

	started atomic.Bool
	stopped atomic.Bool
	// stopOnce makes Shutdown idempotent: the channel closes and the
	// worker is joined exactly once.
	stopOnce sync.Once
}

// New creates a Loop. The loop does not run until Start is called.
func New() *Loop {
	return &Loop{
		jobs: make(chan func(), _jobBufferSize),
	}
}

// Start spawns the worker goroutine. While the loop is running the worker
// never exits, even with an empty queue; it blocks on the job channel until
// work arrives or Shutdown closes it. Calling Start twice panics.
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		panic("ioloop: Start called twice")
	}

	l.wg.Add(1)
	go l.run()

	log.Debug("ioloop: started")
}

// Submit enqueues job for execution on the worker goroutine and returns
// immediately. There is no guarantee the job has started by the time Submit
// returns. Submitting to a loop that is not running panics.
func (l *Loop) Submit(job func()) {
	if !l.Running() {
		panic("ioloop: Submit on a loop that is not running")
	}
	l.jobs <- job
}

// Shutdown releases the loop and blocks until the worker goroutine has
// drained all queued jobs and exited. Calls after the first are no-ops;
// Shutdown never deadlocks and never joins the worker twice.
func (l *Loop) Shutdown() {
	if !l.started.Load() {
		panic("ioloop: Shutdown before Start")
	}

	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.jobs)
		l.wg.Wait()
		log.Debug("ioloop: stopped")
	})
}

// Running reports whether the loop has been started and not yet shut down.
func (l *Loop) Running() bool {
	return l.started.Load() && !l.stopped.Load()
}

// run is the worker body. It exits when the job channel is closed and
// drained, which happens only in Shutdown.
func (l *Loop) run() {
	defer l.wg.Done()

	for job := range l.jobs {
		job()
	}
}

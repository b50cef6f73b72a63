package ioloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobsRunInOrder(t *testing.T) {
	l := New()
	l.Start()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		l.Submit(func() {
			got = append(got, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish in time")
	}

	l.Shutdown()
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	l := New()
	l.Start()

	var ran int
	block := make(chan struct{})
	l.Submit(func() { <-block })
	for i := 0; i < 3; i++ {
		l.Submit(func() { ran++ })
	}

	// Release the worker and shut down; the queued jobs must still run
	// before Shutdown returns.
	close(block)
	l.Shutdown()

	require.Equal(t, 3, ran)
	require.False(t, l.Running())
}

func TestShutdownIsIdempotent(t *testing.T) {
	l := New()
	l.Start()
	l.Shutdown()

	finished := make(chan struct{})
	go func() {
		l.Shutdown() // must neither deadlock nor double-join
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("second Shutdown did not return")
	}
}

func TestDoubleStartPanics(t *testing.T) {
	l := New()
	l.Start()
	defer l.Shutdown()

	require.Panics(t, func() { l.Start() })
}

func TestSubmitBeforeStartPanics(t *testing.T) {
	l := New()
	require.Panics(t, func() { l.Submit(func() {}) })
}

func TestSubmitAfterShutdownPanics(t *testing.T) {
	l := New()
	l.Start()
	l.Shutdown()

	require.Panics(t, func() { l.Submit(func() {}) })
}

func TestRunningWindow(t *testing.T) {
	l := New()
	require.False(t, l.Running())

	l.Start()
	require.True(t, l.Running())

	l.Shutdown()
	require.False(t, l.Running())
}

func TestIdleLoopStaysAlive(t *testing.T) {
	l := New()
	l.Start()

	// No work queued; the worker must still accept jobs after sitting idle.
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	l.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle loop stopped accepting work")
	}
	l.Shutdown()
}

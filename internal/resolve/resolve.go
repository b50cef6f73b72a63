// Package resolve implements a single-outstanding-request resolution
// service. The service owns a background job loop, submits one asynchronous
// hostname lookup at a time, and hands the result back to a synchronously
// waiting caller through a single-slot channel.
package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/lc/hostlook/internal/dnsquery"
	"github.com/lc/hostlook/internal/ioloop"
	"github.com/lc/hostlook/internal/log"
)

var (
	// ErrEmptyHostname is returned when the target hostname is blank.
	ErrEmptyHostname = errors.New("hostname must not be empty")
	// ErrZeroPort is returned when the target port is zero.
	ErrZeroPort = errors.New("port must be non-zero")
	// ErrResolveInFlight is returned when Resolve is called while a
	// previous resolve has not been consumed with Wait.
	ErrResolveInFlight = errors.New("a resolve is already in flight")
	// ErrNotResolving is returned when Wait is called with no resolve
	// outstanding.
	ErrNotResolving = errors.New("no resolve in flight")
)

// Target is the (hostname, port) pair a resolve attempt operates on.
type Target struct {
	Hostname string
	Port     uint16
}

// Endpoint is one resolved address, tagged with its address family.
type Endpoint struct {
	Address string
	IPv4    bool
}

// Family returns a human-readable address family tag.
func (e Endpoint) Family() string {
	if e.IPv4 {
		return "IPv4"
	}
	return "IPv6"
}

// Outcome is the result of a single resolve attempt, success or failure.
// On failure Err is set and Endpoints is empty; on success Endpoints holds
// every resolved address in the order the lookup returned them. An Outcome
// is immutable once produced and belongs to whoever receives it from Wait.
type Outcome struct {
	// ID correlates log lines with the request that produced them.
	ID        string
	Hostname  string
	Port      uint16
	Endpoints []Endpoint
	Err       error
}

// Service resolves one target at a time on a background job loop.
//
// The state machine is Idle → Resolving → Idle: Resolve flips the in-flight
// flag and submits the lookup, the worker completes it and fills the result
// slot, and Wait consumes the slot and flips the flag back. Overlapping
// resolves are rejected with ErrResolveInFlight rather than queued.
//
// SetTarget and Resolve must not be called concurrently with each other;
// the target itself is guarded by a mutex, but the single-outstanding
// contract is per caller.
type Service struct {
	loop *ioloop.Loop
	dns  dnsquery.Clienter

	mu     sync.Mutex // guards target
	target Target

	// inFlight is true from a successful Resolve submission until the
	// caller consumes the Outcome in Wait.
	inFlight atomic.Bool
	// done is the single-slot handoff between the worker goroutine and
	// the waiting caller. The slot is empty whenever no resolve is in
	// flight, so the worker's send never blocks and a result can never
	// be missed: a receive on a buffered channel observes a value sent
	// before the receiver arrived.
	done chan Outcome
}

// New creates a Service backed by the given DNS client and starts its
// background loop. Callers own the returned Service and must Close it.
func New(client dnsquery.Clienter) *Service {
	s := &Service{
		loop: ioloop.New(),
		dns:  client,
		done: make(chan Outcome, 1),
	}
	s.loop.Start()
	return s
}

// SetTarget overwrites the stored target. No validation happens here;
// Resolve validates at submission time.
func (s *Service) SetTarget(hostname string, port uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = Target{Hostname: hostname, Port: port}
}

// Target returns a copy of the stored target.
func (s *Service) Target() Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Resolve validates the current target and submits an asynchronous lookup
// for it, returning immediately. A nil return means the job was accepted
// and the caller must call Wait before interpreting the result or resolving
// again. Validation and lifecycle failures are reported synchronously and
// leave the in-flight state untouched.
//
// The target is copied at submission, so mutating it with SetTarget while
// the lookup runs cannot race with the worker. The submitted job ignores
// cancellation of ctx: once accepted, a resolve runs to completion.
func (s *Service) Resolve(ctx context.Context) error {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	if strings.TrimSpace(target.Hostname) == "" {
		return ErrEmptyHostname
	}
	if target.Port == 0 {
		return ErrZeroPort
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrResolveInFlight
	}

	id := uuid.NewString()
	jobCtx := context.WithoutCancel(ctx)

	log.Debug("resolve: submitted", "id", id, "hostname", target.Hostname, "port", target.Port)
	s.loop.Submit(func() {
		// The send must happen on every path, failure included —
		// dropping it would leave the waiter blocked forever.
		s.done <- s.lookup(jobCtx, id, target)
	})

	return nil
}

// Wait blocks until the outstanding resolve completes and returns its
// Outcome, resetting the service to Idle. It returns ErrNotResolving when
// nothing is outstanding. If ctx expires first the resolve stays
// outstanding and Wait may be called again to collect it.
func (s *Service) Wait(ctx context.Context) (Outcome, error) {
	if !s.inFlight.Load() {
		return Outcome{}, ErrNotResolving
	}

	select {
	case out := <-s.done:
		s.inFlight.Store(false)
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Close shuts down the background loop and blocks until its worker has
// exited. Closing while a resolve is outstanding is a programming error
// and panics; callers must Wait first. Extra Close calls are no-ops.
func (s *Service) Close() {
	if s.inFlight.Load() {
		panic("resolve: Close called with a resolve in flight")
	}
	s.loop.Shutdown()
}

// Running reports whether the background loop is running.
func (s *Service) Running() bool {
	return s.loop.Running()
}

// lookup performs the blocking DNS query on the worker goroutine and
// packages the result, success or failure, into an Outcome.
func (s *Service) lookup(ctx context.Context, id string, target Target) Outcome {
	out := Outcome{ID: id, Hostname: target.Hostname, Port: target.Port}

	addrs, err := s.dns.LookupHost(ctx, target.Hostname)
	if err != nil {
		log.Debug("resolve: lookup failed", "id", id, "hostname", target.Hostname, "err", err)
		out.Err = err
		return out
	}

	out.Endpoints = make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		out.Endpoints = append(out.Endpoints, Endpoint{
			Address: a.IP.String(),
			IPv4:    a.IP.To4() != nil,
		})
	}

	log.Debug("resolve: lookup finished", "id", id, "hostname", target.Hostname, "endpoints", len(out.Endpoints))
	return out
}

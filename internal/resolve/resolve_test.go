package resolve

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/hostlook/internal/dnsquery"
)

type mockClienter struct {
	mock.Mock
}

func (m *mockClienter) LookupHost(ctx context.Context, hostname string) ([]net.IPAddr, error) {
	args := m.Called(ctx, hostname)
	if v := args.Get(0); v != nil {
		return v.([]net.IPAddr), args.Error(1)
	}
	return nil, args.Error(1)
}

type ServiceTestSuite struct {
	suite.Suite
	dns *mockClienter
	svc *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.dns = new(mockClienter)
	s.svc = New(s.dns)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.svc.Close()
}

func (s *ServiceTestSuite) wait() Outcome {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := s.svc.Wait(ctx)
	s.Require().NoError(err, "wait must unblock for every accepted resolve")
	return out
}

func (s *ServiceTestSuite) TestResolveSuccess() {
	s.dns.On("LookupHost", mock.Anything, "example.com").Return([]net.IPAddr{
		{IP: net.ParseIP("93.184.216.34")},
		{IP: net.ParseIP("2606:2800:220:1:248:1893:25c8:1946")},
	}, nil)

	s.svc.SetTarget("example.com", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	out := s.wait()
	s.NoError(out.Err)
	s.Equal("example.com", out.Hostname)
	s.Equal(uint16(80), out.Port)
	s.NotEmpty(out.ID)

	// Order and family tags must match what the lookup returned.
	s.Require().Len(out.Endpoints, 2)
	s.Equal(Endpoint{Address: "93.184.216.34", IPv4: true}, out.Endpoints[0])
	s.Equal(Endpoint{Address: "2606:2800:220:1:248:1893:25c8:1946", IPv4: false}, out.Endpoints[1])
	s.Equal("IPv4", out.Endpoints[0].Family())
	s.Equal("IPv6", out.Endpoints[1].Family())
}

func (s *ServiceTestSuite) TestResolveFailureStillCompletes() {
	s.dns.On("LookupHost", mock.Anything, "nonexistent.invalid").
		Return(nil, dnsquery.ErrNoRecords)

	s.svc.SetTarget("nonexistent.invalid", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	out := s.wait()
	s.ErrorIs(out.Err, dnsquery.ErrNoRecords)
	s.Empty(out.Endpoints)
}

func (s *ServiceTestSuite) TestValidation() {
	testCases := []struct {
		name        string
		hostname    string
		port        uint16
		expectedErr error
	}{
		{
			name:        "empty hostname",
			hostname:    "",
			port:        80,
			expectedErr: ErrEmptyHostname,
		},
		{
			name:        "whitespace hostname",
			hostname:    "  \t",
			port:        80,
			expectedErr: ErrEmptyHostname,
		},
		{
			name:        "zero port",
			hostname:    "example.com",
			port:        0,
			expectedErr: ErrZeroPort,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.svc.SetTarget(tc.hostname, tc.port)

			err := s.svc.Resolve(context.Background())

			s.ErrorIs(err, tc.expectedErr)
			// Rejected synchronously: nothing submitted, no wait needed.
			_, werr := s.svc.Wait(context.Background())
			s.ErrorIs(werr, ErrNotResolving)
		})
	}
	s.dns.AssertNotCalled(s.T(), "LookupHost", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestOverlappingResolveRejected() {
	release := make(chan struct{})
	s.dns.On("LookupHost", mock.Anything, "example.com").
		Run(func(mock.Arguments) { <-release }).
		Return([]net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil)

	s.svc.SetTarget("example.com", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	// The first resolve is still running: a second one must be rejected,
	// not queued.
	s.ErrorIs(s.svc.Resolve(context.Background()), ErrResolveInFlight)

	close(release)
	out := s.wait()
	s.NoError(out.Err)

	// Idle again: the next resolve is accepted.
	s.Require().NoError(s.svc.Resolve(context.Background()))
	s.wait()
}

func (s *ServiceTestSuite) TestRepeatedResolveSameTarget() {
	addrs := []net.IPAddr{
		{IP: net.ParseIP("93.184.216.34")},
		{IP: net.ParseIP("2606:2800:220:1:248:1893:25c8:1946")},
	}
	s.dns.On("LookupHost", mock.Anything, "example.com").Return(addrs, nil)

	s.svc.SetTarget("example.com", 443)

	s.Require().NoError(s.svc.Resolve(context.Background()))
	first := s.wait()
	s.Require().NoError(s.svc.Resolve(context.Background()))
	second := s.wait()

	s.Equal(first.Endpoints, second.Endpoints)
	s.NotEqual(first.ID, second.ID)
}

func (s *ServiceTestSuite) TestTargetCopiedAtSubmission() {
	release := make(chan struct{})
	s.dns.On("LookupHost", mock.Anything, "example.com").
		Run(func(mock.Arguments) { <-release }).
		Return([]net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil)

	s.svc.SetTarget("example.com", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	// Mutating the target mid-flight must not leak into the running job.
	s.svc.SetTarget("other.example", 9999)
	close(release)

	out := s.wait()
	s.Equal("example.com", out.Hostname)
	s.Equal(uint16(80), out.Port)
}

func (s *ServiceTestSuite) TestWaitWithoutResolve() {
	_, err := s.svc.Wait(context.Background())
	s.ErrorIs(err, ErrNotResolving)
}

func (s *ServiceTestSuite) TestWaitCanBeRetriedAfterContextExpiry() {
	release := make(chan struct{})
	s.dns.On("LookupHost", mock.Anything, "example.com").
		Run(func(mock.Arguments) { <-release }).
		Return([]net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil)

	s.svc.SetTarget("example.com", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.svc.Wait(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)

	// The resolve is still outstanding; a later Wait collects it.
	close(release)
	out := s.wait()
	s.NoError(out.Err)
}

func (s *ServiceTestSuite) TestCloseWhileResolvingPanics() {
	release := make(chan struct{})
	s.dns.On("LookupHost", mock.Anything, "example.com").
		Run(func(mock.Arguments) { <-release }).
		Return([]net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil)

	s.svc.SetTarget("example.com", 80)
	s.Require().NoError(s.svc.Resolve(context.Background()))

	s.Panics(func() { s.svc.Close() })

	close(release)
	s.wait()
}

func (s *ServiceTestSuite) TestCloseStopsWorker() {
	s.True(s.svc.Running())

	finished := make(chan struct{})
	go func() {
		s.svc.Close()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		s.Fail("Close did not return in time")
	}
	s.False(s.svc.Running())

	// Extra Close calls are no-ops.
	s.NotPanics(func() { s.svc.Close() })
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

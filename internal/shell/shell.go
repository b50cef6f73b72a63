// Package shell implements the interactive command loop for the hostlook
// tool. It reads numbered commands from the user, prompts for and validates
// hostname and port input, and drives the resolution service one request at
// a time, rendering each outcome before accepting the next command.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lc/hostlook/internal/resolve"
)

// Commands accepted by the loop.
const (
	cmdExit         = 0
	cmdSetHostname  = 1
	cmdSetPort      = 2
	cmdResolve      = 3
	cmdShowCommands = 9
)

// Hostnames must carry at least this many alphanumeric characters.
const _minHostnameChars = 3

var (
	// ErrHostnameEmpty is returned for a blank hostname.
	ErrHostnameEmpty = errors.New("hostname cannot be empty")
	// ErrHostnameChars is returned when a hostname contains anything
	// other than letters, digits and periods.
	ErrHostnameChars = errors.New("hostname must contain only periods and alphanumeric characters")
	// ErrHostnameTooShort is returned when a hostname has fewer than
	// three alphanumeric characters.
	ErrHostnameTooShort = fmt.Errorf("hostname must contain at least %d characters", _minHostnameChars)
	// ErrHostnameNoPeriod is returned when a hostname has no period.
	ErrHostnameNoPeriod = errors.New("hostname must contain a period (.) character")
	// ErrInvalidPort is returned when a port is not an integer in 1..65535.
	ErrInvalidPort = errors.New("port must be an integer between 1 and 65535")
)

// Service is the surface of the resolution service the shell drives.
type Service interface {
	SetTarget(hostname string, port uint16)
	Target() resolve.Target
	Resolve(ctx context.Context) error
	Wait(ctx context.Context) (resolve.Outcome, error)
}

// Shell runs the interactive command loop against a Service, reading from
// in and writing to out. It performs no resolution itself; all presentation
// of results and errors happens here, from Outcome values.
type Shell struct {
	svc Service
	in  *bufio.Scanner
	out io.Writer
}

// New creates a Shell bound to the given service and streams.
func New(svc Service, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Run executes the command loop until the user exits or input ends.
// The caller owns the service lifecycle and closes it after Run returns.
func (s *Shell) Run(ctx context.Context) error {
	s.printCommands()

	for {
		fmt.Fprint(s.out, "> Enter command: ")
		line, ok := s.readLine()
		if !ok {
			return nil
		}

		cmd, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(s.out, "> Command unrecognised...")
			continue
		}

		switch cmd {
		case cmdExit:
			return nil
		case cmdSetHostname:
			s.promptHostname()
		case cmdSetPort:
			s.promptPort()
		case cmdResolve:
			if err := s.resolve(ctx); err != nil {
				return err
			}
		case cmdShowCommands:
			s.printCommands()
		default:
			fmt.Fprintln(s.out, "> Command unrecognised...")
		}
	}
}

// ValidateHostname checks that a hostname contains only letters, digits and
// periods, has at least three alphanumeric characters and at least one
// period.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrHostnameEmpty
	}

	var alnum, periods int
	for _, r := range hostname {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			alnum++
		case r == '.':
			periods++
		default:
			return ErrHostnameChars
		}
	}

	if alnum < _minHostnameChars {
		return ErrHostnameTooShort
	}
	if periods == 0 {
		return ErrHostnameNoPeriod
	}
	return nil
}

// ParsePort parses a decimal port number in 1..65535.
func ParsePort(input string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(input), 10, 16)
	if err != nil || n == 0 {
		return 0, ErrInvalidPort
	}
	return uint16(n), nil
}

func (s *Shell) printCommands() {
	fmt.Fprint(s.out, "\n\t0 - Exit\n"+
		"\t1 - Set hostname\n"+
		"\t2 - Set port number\n"+
		"\t3 - Resolve DNS\n"+
		"\t9 - Show commands\n\n")
}

func (s *Shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

// promptHostname keeps asking until the input validates or input ends.
func (s *Shell) promptHostname() {
	for {
		fmt.Fprint(s.out, "Enter a new hostname: ")
		line, ok := s.readLine()
		if !ok {
			return
		}

		hostname := strings.TrimSpace(line)
		if err := ValidateHostname(hostname); err != nil {
			fmt.Fprintf(s.out, "\t> %v.\n", err)
			continue
		}

		s.svc.SetTarget(hostname, s.svc.Target().Port)
		fmt.Fprintf(s.out, "\t> Hostname set to: %s\n\n", hostname)
		return
	}
}

// promptPort keeps asking until the input validates or input ends.
func (s *Shell) promptPort() {
	for {
		fmt.Fprint(s.out, "Enter a new port number: ")
		line, ok := s.readLine()
		if !ok {
			return
		}

		port, err := ParsePort(line)
		if err != nil {
			fmt.Fprintf(s.out, "\t> Invalid port number: %v.\n", err)
			continue
		}

		s.svc.SetTarget(s.svc.Target().Hostname, port)
		fmt.Fprintf(s.out, "\t> Port number set to: %d\n\n", port)
		return
	}
}

// resolve submits a resolve for the current target and synchronously waits
// for its outcome. Rejected submissions (bad target, resolve in flight) are
// reported without waiting.
func (s *Shell) resolve(ctx context.Context) error {
	if err := s.svc.Resolve(ctx); err != nil {
		fmt.Fprintf(s.out, "\t> Error: %v.\n", err)
		return nil
	}

	out, err := s.svc.Wait(ctx)
	if err != nil {
		return err
	}

	s.render(out)
	return nil
}

// render prints a completed outcome: either the ordered endpoint list with
// family tags, or the resolution error.
func (s *Shell) render(out resolve.Outcome) {
	if out.Err != nil {
		fmt.Fprintf(s.out, "\t> Error resolving %s: %v\n", out.Hostname, out.Err)
		return
	}

	header := fmt.Sprintf("%s:%d", out.Hostname, out.Port)
	fmt.Fprintf(s.out, "\n\t%s:\n\t%s\n", header, strings.Repeat("-", len(header)+1))
	for i, ep := range out.Endpoints {
		fmt.Fprintf(s.out, "\tEndpoint %d: %s (%s)\n", i, ep.Address, ep.Family())
	}
	fmt.Fprintln(s.out)
}

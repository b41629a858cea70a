package condition

import (
	"context"
	"fmt"
	"regexp"
)

// ListenerSource lists the sockets currently accepting connections.
type ListenerSource interface {
	// TCPListeners returns listening TCP sockets rendered as "host:port".
	TCPListeners(ctx context.Context) ([]string, error)
	// UnixListeners returns the paths of listening Unix-domain sockets.
	UnixListeners(ctx context.Context) ([]string, error)
}

// Socket matches listening sockets against a pattern. A purely numeric
// pattern is a TCP port; anything else is matched against Unix socket paths.
// In both forms the pattern is a regular expression and is not escaped.
type Socket struct {
	pattern string
	port    bool
	re      *regexp.Regexp
	source  ListenerSource
}

// NewSocket compiles pattern. The returned error wraps ErrInvalidPattern.
func NewSocket(pattern string, source ListenerSource) (*Socket, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	port := isNumeric(pattern)
	expr := pattern
	if port {
		expr = ":" + pattern + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
	}

	return &Socket{
		pattern: pattern,
		port:    port,
		re:      re,
		source:  source,
	}, nil
}

func (s *Socket) Describe() string {
	if s.port {
		return fmt.Sprintf("tcp port %s", s.pattern)
	}
	return fmt.Sprintf("unix socket %q", s.pattern)
}

// Evaluate yields 0 when a listening socket matches and 1 otherwise.
func (s *Socket) Evaluate(ctx context.Context) (int, error) {
	var (
		addrs []string
		err   error
	)
	if s.port {
		addrs, err = s.source.TCPListeners(ctx)
	} else {
		addrs, err = s.source.UnixListeners(ctx)
	}
	if err != nil {
		return 1, fmt.Errorf("reading socket table: %w", err)
	}

	for _, addr := range addrs {
		if s.re.MatchString(addr) {
			return 0, nil
		}
	}
	return 1, nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

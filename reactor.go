package asyncssh

import (
	"context"
	"io"
	"sync/atomic"
)

// Reactor is a socket's readiness signaling facility. One reactor instance
// observes the same connection the engine performs its I/O on; the session
// and every handle derived from it share that one instance.
//
// Implementations must be safe for concurrent use: many handles suspend on
// the same reactor independently.
type Reactor interface {
	// Wait blocks the calling goroutine until at least one condition in
	// interest is satisfied, or ctx is done.
	Wait(ctx context.Context, interest Interest) error

	// Poll reports whether at least one condition in interest is
	// currently satisfied, without blocking. When it returns false, wake
	// has been registered and is invoked once after the socket's
	// readiness changes; a wake callback must be cheap and must not
	// block.
	Poll(interest Interest, wake func()) (bool, error)
}

// socket pairs the live connection with its reactor. Exactly one socket
// exists per session; every derived and leaf handle retains a reference,
// and the connection is closed when the last reference is released.
type socket struct {
	conn    io.Closer
	reactor Reactor
	refs    atomic.Int64
}

func newSocket(conn io.Closer, reactor Reactor) *socket {
	s := &socket{conn: conn, reactor: reactor}
	s.refs.Store(1)
	return s
}

func (s *socket) retain() *socket {
	s.refs.Add(1)
	return s
}

// release drops one reference. The final release shuts down the reactor
// and closes the connection.
func (s *socket) release() error {
	if s.refs.Add(-1) > 0 {
		return nil
	}
	if c, ok := s.reactor.(io.Closer); ok {
		c.Close()
	}
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

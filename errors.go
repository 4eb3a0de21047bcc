package asyncssh

import (
	"errors"
	"fmt"
)

// ErrWouldBlock is the engine's not-ready signal: the operation cannot make
// progress without further network I/O. It is absorbed by the bridge as a
// retry signal and never surfaces from the suspending call surface; only
// engine implementations return it.
var ErrWouldBlock = errors.New("operation would block")

// ErrNotReady is returned by the Poll methods of Stream when the socket is
// not ready in the required direction. The supplied wake callback has been
// registered and will fire when readiness changes.
var ErrNotReady = errors.New("stream not ready")

// DirectionError reports an engine contract violation: an operation
// returned ErrWouldBlock while the session reported a block direction with
// no satisfiable interest set. It flows through the same error path as
// protocol errors so a single malformed connection cannot take down the
// caller's scheduler.
type DirectionError struct {
	Direction BlockDirection
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("engine blocked with direction %q", e.Direction)
}

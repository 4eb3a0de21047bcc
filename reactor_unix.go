//go:build unix

package asyncssh

import (
	"context"
	"io/fs"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// pollSliceMs bounds how long a reactor wait can outlive its context.
// Cancellation is observed between poll slices.
const pollSliceMs = 100

// pollReactor waits for readiness of a single raw descriptor with poll(2).
// It is the default reactor used by NewSession when no WithReactor option
// is given and the connection exposes a raw descriptor.
type pollReactor struct {
	fd int

	mu       sync.Mutex
	wakers   map[Interest][]func()
	watching Interest
	closed   bool
}

func newConnReactor(conn syscall.Conn) (Reactor, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	r := &pollReactor{
		fd:     -1,
		wakers: make(map[Interest][]func()),
	}
	if err := rc.Control(func(fd uintptr) { r.fd = int(fd) }); err != nil {
		return nil, err
	}
	return r, nil
}

func pollEvents(interest Interest) int16 {
	var ev int16
	if interest.Has(Readable) {
		ev |= unix.POLLIN
	}
	if interest.Has(Writable) {
		ev |= unix.POLLOUT
	}
	return ev
}

// poll performs one poll(2) call. Error and hangup conditions count as
// ready so the subsequent engine attempt surfaces the actual failure.
func (r *pollReactor) poll(interest Interest, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: pollEvents(interest)}}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}

func (r *pollReactor) Wait(ctx context.Context, interest Interest) error {
	for {
		ready, err := r.poll(interest, pollSliceMs)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *pollReactor) Poll(interest Interest, wake func()) (bool, error) {
	ready, err := r.poll(interest, 0)
	if err != nil {
		return false, err
	}
	if ready {
		return true, nil
	}
	if wake == nil {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, fs.ErrClosed
	}
	for _, bit := range []Interest{Readable, Writable} {
		if !interest.Has(bit) {
			continue
		}
		r.wakers[bit] = append(r.wakers[bit], wake)
		if r.watching&bit == 0 {
			r.watching |= bit
			go r.watch(bit)
		}
	}
	return false, nil
}

// watch polls one interest bit until it is satisfied, then fires every
// registered wake callback for it. A watcher exits when its waker list
// drains or the reactor is closed.
func (r *pollReactor) watch(bit Interest) {
	for {
		ready, err := r.poll(bit, pollSliceMs)

		r.mu.Lock()
		if r.closed || err != nil || ready {
			r.watching &^= bit
			wakers := r.wakers[bit]
			r.wakers[bit] = nil
			r.mu.Unlock()
			for _, wake := range wakers {
				wake()
			}
			return
		}
		if len(r.wakers[bit]) == 0 {
			r.watching &^= bit
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
	}
}

// Close stops outstanding watchers. Pending wake callbacks fire so pollers
// re-attempt and observe the closed connection.
func (r *pollReactor) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

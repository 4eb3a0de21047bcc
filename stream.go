package asyncssh

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"
)

// Stream adapts a stream-capable engine object (a channel substream or an
// SFTP file) to caller-driven polling. Unlike the bridge, a poll never
// suspends: when the socket is not ready the caller's wake callback is
// registered and ErrNotReady is returned, so external streaming machinery
// can drive its own suspension.
//
// ReadContext, WriteContext and the io.Reader/io.Writer forms are
// suspending conveniences built on the poll surface.
//
// A Stream is not safe for concurrent use of the same direction; distinct
// streams of one channel may be used concurrently.
type Stream struct {
	eng  StreamEngine
	sock *socket

	// owns marks streams holding their own socket reference. Streams
	// embedded in a File borrow the File's reference instead.
	owns   bool
	closed atomic.Bool
}

// PollRead attempts one read without suspending.
//
// If the socket is not readable, wake is registered with the reactor and
// PollRead returns ErrNotReady. If the socket is readable but the engine
// cannot assemble a complete protocol unit, the attempt loops within this
// call; it never falsely reports readiness. A short count with nil error
// is a valid, final result, and only bytes the engine actually produced
// are placed in p.
func (s *Stream) PollRead(p []byte, wake func()) (int, error) {
	for {
		ready, err := s.sock.reactor.Poll(Readable, wake)
		if err != nil {
			return 0, err
		}
		if !ready {
			return 0, ErrNotReady
		}

		n, err := s.eng.Read(p)
		if err == nil || !errors.Is(err, ErrWouldBlock) {
			return n, err
		}
	}
}

// PollWrite attempts one write without suspending, following the same
// contract as PollRead.
func (s *Stream) PollWrite(p []byte, wake func()) (int, error) {
	for {
		ready, err := s.sock.reactor.Poll(Writable, wake)
		if err != nil {
			return 0, err
		}
		if !ready {
			return 0, ErrNotReady
		}

		n, err := s.eng.Write(p)
		if err == nil || !errors.Is(err, ErrWouldBlock) {
			return n, err
		}
	}
}

// PollFlush attempts to flush buffered writes without suspending.
func (s *Stream) PollFlush(wake func()) error {
	for {
		ready, err := s.sock.reactor.Poll(Writable, wake)
		if err != nil {
			return err
		}
		if !ready {
			return ErrNotReady
		}

		err = s.eng.Flush()
		if err == nil || !errors.Is(err, ErrWouldBlock) {
			return err
		}
	}
}

// ReadContext reads up to len(p) bytes, suspending until the peer sends
// data, end-of-stream (io.EOF), or ctx is done.
func (s *Stream) ReadContext(ctx context.Context, p []byte) (int, error) {
	return s.suspend(ctx, func(wake func()) (int, error) {
		return s.PollRead(p, wake)
	})
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	return s.ReadContext(context.Background(), p)
}

// WriteContext writes up to len(p) bytes, suspending while the transport
// cannot accept more.
func (s *Stream) WriteContext(ctx context.Context, p []byte) (int, error) {
	return s.suspend(ctx, func(wake func()) (int, error) {
		return s.PollWrite(p, wake)
	})
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	return s.WriteContext(context.Background(), p)
}

// FlushContext flushes buffered writes to the peer.
func (s *Stream) FlushContext(ctx context.Context) error {
	_, err := s.suspend(ctx, func(wake func()) (int, error) {
		return 0, s.PollFlush(wake)
	})
	return err
}

// Flush flushes buffered writes with no deadline.
func (s *Stream) Flush() error {
	return s.FlushContext(context.Background())
}

// suspend drives poll until it yields a definitive result, parking the
// goroutine between not-ready polls until the registered wake fires.
func (s *Stream) suspend(ctx context.Context, poll func(wake func()) (int, error)) (int, error) {
	for {
		ready := make(chan struct{}, 1)
		n, err := poll(func() {
			select {
			case ready <- struct{}{}:
			default:
			}
		})
		if !errors.Is(err, ErrNotReady) {
			return n, err
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Close drops the stream's reference to the shared socket. The substream
// itself has no independent teardown; end-of-stream is signaled with the
// channel's SendEOF/Close.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	if !s.owns {
		return nil
	}
	return s.sock.release()
}

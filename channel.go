package asyncssh

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Channel is a handle over one SSH channel. It is derived from a Session
// (or accepted from a Listener) and shares the session's socket.
//
// Mutating operations on the same channel are serialized by the handle;
// read-only queries may overlap each other. Operations on different
// channels of the same session never block each other here.
type Channel struct {
	eng    ChannelEngine
	sock   *socket
	bridge bridge
	log    zerolog.Logger
	closed atomic.Bool
}

// Setenv sets an environment variable for the remote process.
func (c *Channel) Setenv(ctx context.Context, name, value string) error {
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.Setenv(name, value)
	})
}

// RequestPty asks the server to allocate a pseudo-terminal. modes may be
// nil and size may be nil when the terminal dimensions are unknown.
func (c *Channel) RequestPty(ctx context.Context, term string, modes ssh.TerminalModes, size *PtySize) error {
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.RequestPty(term, modes, size)
	})
}

// ResizePty reports new terminal dimensions to the server.
func (c *Channel) ResizePty(ctx context.Context, size PtySize) error {
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.ResizePty(size)
	})
}

// RequestAgentForwarding asks the server to forward the key agent.
func (c *Channel) RequestAgentForwarding(ctx context.Context) error {
	return c.bridge.exclusive(ctx, c.eng.RequestAgentForwarding)
}

// Exec starts command on the remote host.
func (c *Channel) Exec(ctx context.Context, command string) error {
	c.log.Debug().Str("command", command).Msg("exec")
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.Exec(command)
	})
}

// Shell starts an interactive shell on the remote host.
func (c *Channel) Shell(ctx context.Context) error {
	c.log.Debug().Msg("shell")
	return c.bridge.exclusive(ctx, c.eng.Shell)
}

// Subsystem starts the named subsystem on the remote host.
func (c *Channel) Subsystem(ctx context.Context, name string) error {
	c.log.Debug().Str("subsystem", name).Msg("subsystem")
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.Subsystem(name)
	})
}

// ProcessStartup issues a generic process startup request ("exec",
// "shell", "subsystem") with an optional request-specific message.
func (c *Channel) ProcessStartup(ctx context.Context, request, message string) error {
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.ProcessStartup(request, message)
	})
}

// HandleExtendedData selects how extended data (stderr) is routed.
func (c *Channel) HandleExtendedData(ctx context.Context, mode ExtendedDataMode) error {
	return c.bridge.exclusive(ctx, func() error {
		return c.eng.HandleExtendedData(mode)
	})
}

// Stream returns the byte stream with the given substream id. Id
// StreamStdout is the primary stream, StreamStderr the extended (stderr)
// stream. The stream holds its own reference to the shared socket.
func (c *Channel) Stream(id int) *Stream {
	return &Stream{
		eng:  c.eng.Stream(id),
		sock: c.sock.retain(),
		owns: true,
	}
}

// Stderr returns the channel's extended data stream.
func (c *Channel) Stderr() *Stream {
	return c.Stream(StreamStderr)
}

// ExitStatus returns the exit status reported by the remote process.
func (c *Channel) ExitStatus(ctx context.Context) (int, error) {
	return sharedResult(ctx, &c.bridge, c.eng.ExitStatus)
}

// ExitSignal returns the signal that terminated the remote process, if it
// was killed by one.
func (c *Channel) ExitSignal(ctx context.Context) (ExitSignal, error) {
	return sharedResult(ctx, &c.bridge, c.eng.ExitSignal)
}

// ReadWindow returns a snapshot of the receive flow-control window.
func (c *Channel) ReadWindow(ctx context.Context) (ReadWindow, error) {
	return sharedResult(ctx, &c.bridge, c.eng.ReadWindow)
}

// WriteWindow returns a snapshot of the send flow-control window.
func (c *Channel) WriteWindow(ctx context.Context) (WriteWindow, error) {
	return sharedResult(ctx, &c.bridge, c.eng.WriteWindow)
}

// AdjustReceiveWindow grows the receive window by adjust bytes and returns
// the new window size. With force, the adjustment is sent immediately
// rather than batched with the next read.
func (c *Channel) AdjustReceiveWindow(ctx context.Context, adjust uint64, force bool) (uint64, error) {
	return exclusiveResult(ctx, &c.bridge, func() (uint64, error) {
		return c.eng.AdjustReceiveWindow(adjust, force)
	})
}

// EOF reports whether the remote peer has sent end-of-file.
func (c *Channel) EOF() bool {
	return c.eng.EOF()
}

// SendEOF tells the peer no more data will be sent on this channel.
func (c *Channel) SendEOF(ctx context.Context) error {
	return c.bridge.exclusive(ctx, c.eng.SendEOF)
}

// WaitEOF blocks until the peer has sent end-of-file.
func (c *Channel) WaitEOF(ctx context.Context) error {
	return c.bridge.exclusive(ctx, c.eng.WaitEOF)
}

// Close sends the channel close message and drops this handle's reference
// to the shared socket. The handle stays usable for WaitClose while the
// parent session remains open.
func (c *Channel) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	err := c.bridge.exclusive(ctx, c.eng.Close)
	if rerr := c.sock.release(); err == nil {
		err = rerr
	}
	return err
}

// WaitClose blocks until the peer acknowledges the channel close.
func (c *Channel) WaitClose(ctx context.Context) error {
	return c.bridge.exclusive(ctx, c.eng.WaitClose)
}

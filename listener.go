package asyncssh

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Listener is a handle over a server-side port-forward listener, created
// by Session.ForwardListen.
type Listener struct {
	eng    ListenerEngine
	sock   *socket
	bridge bridge
	log    zerolog.Logger
	closed atomic.Bool
}

// Accept blocks until the server forwards an incoming connection and
// returns it as a new Channel sharing the session's socket.
func (l *Listener) Accept(ctx context.Context) (*Channel, error) {
	eng, err := exclusiveResult(ctx, &l.bridge, l.eng.Accept)
	if err != nil {
		return nil, errors.Wrap(err, "asyncssh: accept")
	}
	return &Channel{
		eng:    eng,
		sock:   l.sock.retain(),
		bridge: bridge{sock: l.sock, sess: l.bridge.sess},
		log:    l.log.With().Str("channel", uuid.NewString()).Logger(),
	}, nil
}

// Close drops the handle's reference to the shared socket.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	return l.sock.release()
}

package asyncssh

import (
	"context"
	"io/fs"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// SessionOption configures a Session at construction time.
type SessionOption func(*Session) error

// WithReactor supplies the readiness facility for the session's socket.
// Without this option NewSession builds a poll(2)-based reactor from the
// connection's raw descriptor.
func WithReactor(r Reactor) SessionOption {
	return func(s *Session) error {
		if r == nil {
			return errors.New("asyncssh: nil reactor")
		}
		s.reactor = r
		return nil
	}
}

// WithLogger attaches a logger to the session. Derived handles inherit it.
// The default discards everything.
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) error {
		s.log = log
		return nil
	}
}

// Session is the root handle over one SSH connection. All sub-resources
// (agent, channels, listeners, SFTP) are opened through its factory
// methods and share its socket and reactor.
//
// Methods may be called from many goroutines; mutating operations on the
// session-level engine are serialized internally, and read-only operations
// may overlap each other.
type Session struct {
	eng    SessionEngine
	sock   *socket
	bridge bridge
	log    zerolog.Logger

	reactor Reactor
	closed  atomic.Bool
}

// NewSession wraps an already-connected socket and its protocol engine.
// The engine is switched into non-blocking mode here; the handshake is not
// performed, call Handshake next.
func NewSession(eng SessionEngine, conn net.Conn, opts ...SessionOption) (*Session, error) {
	if eng == nil {
		return nil, errors.New("asyncssh: nil engine")
	}

	s := &Session{
		eng: eng,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.reactor == nil {
		sc, ok := conn.(syscall.Conn)
		if !ok {
			return nil, errors.New("asyncssh: conn exposes no raw descriptor; pass WithReactor")
		}
		r, err := newConnReactor(sc)
		if err != nil {
			return nil, errors.Wrap(err, "asyncssh: reactor")
		}
		s.reactor = r
	}

	eng.SetBlocking(false)

	var closer interface{ Close() error }
	if conn != nil {
		closer = conn
	}
	s.sock = newSocket(closer, s.reactor)
	s.bridge = bridge{sock: s.sock, sess: eng}
	s.log = s.log.With().Str("session", uuid.NewString()).Logger()

	return s, nil
}

// Handshake performs the SSH protocol handshake and key exchange.
func (s *Session) Handshake(ctx context.Context) error {
	s.log.Debug().Msg("handshake")
	return s.bridge.exclusive(ctx, s.eng.Handshake)
}

// AuthPassword authenticates with a plain password.
func (s *Session) AuthPassword(ctx context.Context, username, password string) error {
	s.log.Debug().Str("user", username).Msg("password auth")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthPassword(username, password)
	})
}

// AuthKeyboardInteractive authenticates via the keyboard-interactive
// method, calling challenge for every prompt batch the server sends.
func (s *Session) AuthKeyboardInteractive(ctx context.Context, username string, challenge KeyboardInteractiveChallenge) error {
	s.log.Debug().Str("user", username).Msg("keyboard-interactive auth")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthKeyboardInteractive(username, challenge)
	})
}

// AuthAgent authenticates with the first acceptable identity held by the
// user's key agent.
func (s *Session) AuthAgent(ctx context.Context, username string) error {
	s.log.Debug().Str("user", username).Msg("agent auth")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthAgent(username)
	})
}

// AuthPublicKeyFile authenticates with a key pair stored on disk. An empty
// publicKeyPath derives the public half from the private key file.
func (s *Session) AuthPublicKeyFile(ctx context.Context, username, publicKeyPath, privateKeyPath, passphrase string) error {
	s.log.Debug().Str("user", username).Str("key", privateKeyPath).Msg("public key auth")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthPublicKeyFile(username, publicKeyPath, privateKeyPath, passphrase)
	})
}

// AuthPublicKey authenticates with in-memory key material. A nil publicKey
// derives the public half from the private key data.
func (s *Session) AuthPublicKey(ctx context.Context, username string, publicKey, privateKey []byte, passphrase string) error {
	s.log.Debug().Str("user", username).Msg("public key auth (memory)")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthPublicKey(username, publicKey, privateKey, passphrase)
	})
}

// AuthHostBased authenticates with host-based credentials.
func (s *Session) AuthHostBased(ctx context.Context, username, publicKeyPath, privateKeyPath, passphrase, hostname, localUsername string) error {
	s.log.Debug().Str("user", username).Str("host", hostname).Msg("host-based auth")
	return s.bridge.shared(ctx, func() error {
		return s.eng.AuthHostBased(username, publicKeyPath, privateKeyPath, passphrase, hostname, localUsername)
	})
}

// Authenticated reports whether any authentication method has succeeded.
func (s *Session) Authenticated() bool {
	return s.eng.Authenticated()
}

// AuthMethods returns the comma-separated authentication methods the
// server offers for username.
func (s *Session) AuthMethods(ctx context.Context, username string) (string, error) {
	return sharedResult(ctx, &s.bridge, func() (string, error) {
		return s.eng.AuthMethods(username)
	})
}

// SetMethodPref sets the preference order for one negotiable algorithm
// slot. Must be called before Handshake to take effect.
func (s *Session) SetMethodPref(ctx context.Context, method MethodType, prefs string) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.SetMethodPref(method, prefs)
	})
}

// Methods returns the algorithm negotiated for the given slot, if the
// handshake has completed.
func (s *Session) Methods(method MethodType) (string, bool) {
	return s.eng.Methods(method)
}

// SupportedAlgs lists the algorithms this side supports for the given slot.
func (s *Session) SupportedAlgs(ctx context.Context, method MethodType) ([]string, error) {
	return sharedResult(ctx, &s.bridge, func() ([]string, error) {
		return s.eng.SupportedAlgs(method)
	})
}

// Banner returns the authentication banner received from the server.
func (s *Session) Banner() (string, bool) {
	return s.eng.Banner()
}

// HostKey returns the server's host key as negotiated during the
// handshake.
func (s *Session) HostKey() (HostKey, bool) {
	return s.eng.HostKey()
}

// HostKeyHash returns the digest of the server's host key under the given
// algorithm.
func (s *Session) HostKeyHash(hash HashType) ([]byte, bool) {
	return s.eng.HostKeyHash(hash)
}

// Keepalive sends a keepalive message and returns the recommended delay
// before the next one.
func (s *Session) Keepalive(ctx context.Context) (time.Duration, error) {
	return sharedResult(ctx, &s.bridge, s.eng.Keepalive)
}

// Disconnect sends a disconnect message with a reason code, a
// human-readable description and an RFC 3066 language tag. It does not
// close the local socket; Close does.
func (s *Session) Disconnect(ctx context.Context, reason DisconnectCode, description, lang string) error {
	s.log.Debug().Int("reason", int(reason)).Str("description", description).Msg("disconnect")
	return s.bridge.shared(ctx, func() error {
		return s.eng.Disconnect(reason, description, lang)
	})
}

// OpenAgent connects a handle to the user's key agent.
func (s *Session) OpenAgent(ctx context.Context) (*Agent, error) {
	eng, err := sharedResult(ctx, &s.bridge, s.eng.OpenAgent)
	if err != nil {
		return nil, errors.Wrap(err, "asyncssh: open agent")
	}
	return &Agent{
		eng:    eng,
		sock:   s.sock.retain(),
		bridge: bridge{sock: s.sock, sess: s.eng},
		log:    s.log,
	}, nil
}

// OpenChannel opens a session-type channel.
func (s *Session) OpenChannel(ctx context.Context) (*Channel, error) {
	eng, err := sharedResult(ctx, &s.bridge, s.eng.OpenChannel)
	if err != nil {
		return nil, errors.Wrap(err, "asyncssh: open channel")
	}
	return s.newChannel(eng), nil
}

// OpenChannelType opens a channel of an arbitrary type with explicit
// window and packet sizes, plus an optional type-specific message.
func (s *Session) OpenChannelType(ctx context.Context, chanType string, windowSize, packetSize uint32, message string) (*Channel, error) {
	eng, err := sharedResult(ctx, &s.bridge, func() (ChannelEngine, error) {
		return s.eng.OpenChannelType(chanType, windowSize, packetSize, message)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "asyncssh: open %s channel", chanType)
	}
	return s.newChannel(eng), nil
}

// OpenDirectTCPIP opens a direct-tcpip channel to host:port, tunneled
// through the server. src, when non-nil, is reported to the server as the
// originator address.
func (s *Session) OpenDirectTCPIP(ctx context.Context, host string, port uint16, src *Endpoint) (*Channel, error) {
	eng, err := sharedResult(ctx, &s.bridge, func() (ChannelEngine, error) {
		return s.eng.OpenDirectTCPIP(host, port, src)
	})
	if err != nil {
		return nil, errors.Wrap(err, "asyncssh: open direct-tcpip channel")
	}
	return s.newChannel(eng), nil
}

// ForwardListen asks the server to listen on host:port and returns a
// listener for the forwarded connections, together with the port actually
// bound (relevant when port is zero). queueSize bounds the server-side
// backlog of unaccepted connections.
func (s *Session) ForwardListen(ctx context.Context, host string, port uint16, queueSize int) (*Listener, uint16, error) {
	var (
		eng   ListenerEngine
		bound uint16
	)
	err := s.bridge.shared(ctx, func() error {
		l, p, err := s.eng.ForwardListen(host, port, queueSize)
		if err != nil {
			return err
		}
		eng, bound = l, p
		return nil
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "asyncssh: forward listen")
	}
	return &Listener{
		eng:    eng,
		sock:   s.sock.retain(),
		bridge: bridge{sock: s.sock, sess: s.eng},
		log:    s.log,
	}, bound, nil
}

// OpenSftp starts the SFTP subsystem on a new channel.
func (s *Session) OpenSftp(ctx context.Context) (*Sftp, error) {
	eng, err := sharedResult(ctx, &s.bridge, s.eng.OpenSftp)
	if err != nil {
		return nil, errors.Wrap(err, "asyncssh: open sftp")
	}
	return &Sftp{
		eng:    eng,
		sock:   s.sock.retain(),
		bridge: bridge{sock: s.sock, sess: s.eng},
		log:    s.log,
	}, nil
}

// ScpRecv starts an SCP download of the named remote file, returning the
// channel carrying its contents and the remote file's metadata.
func (s *Session) ScpRecv(ctx context.Context, path string) (*Channel, ScpFileStat, error) {
	var (
		eng  ChannelEngine
		stat ScpFileStat
	)
	err := s.bridge.shared(ctx, func() error {
		c, st, err := s.eng.ScpRecv(path)
		if err != nil {
			return err
		}
		eng, stat = c, st
		return nil
	})
	if err != nil {
		return nil, ScpFileStat{}, errors.Wrapf(err, "asyncssh: scp recv %s", path)
	}
	return s.newChannel(eng), stat, nil
}

// ScpSend starts an SCP upload of size bytes to the named remote path,
// returning the channel to write the contents to.
func (s *Session) ScpSend(ctx context.Context, path string, mode fs.FileMode, size uint64, times *ScpTimes) (*Channel, error) {
	eng, err := sharedResult(ctx, &s.bridge, func() (ChannelEngine, error) {
		return s.eng.ScpSend(path, mode, size, times)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "asyncssh: scp send %s", path)
	}
	return s.newChannel(eng), nil
}

func (s *Session) newChannel(eng ChannelEngine) *Channel {
	return &Channel{
		eng:    eng,
		sock:   s.sock.retain(),
		bridge: bridge{sock: s.sock, sess: s.eng},
		log:    s.log.With().Str("channel", uuid.NewString()).Logger(),
	}
}

// Close drops the session's reference to the shared socket. The
// connection is released once every derived handle has been closed as
// well. Close does not notify the peer; call Disconnect first for a
// graceful shutdown.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	s.log.Debug().Msg("session closed")
	return s.sock.release()
}

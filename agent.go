package asyncssh

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Agent is a handle over the connection to the user's key agent. It is
// derived from a Session and shares its socket; mutating operations are
// serialized per agent handle.
type Agent struct {
	eng    AgentEngine
	sock   *socket
	bridge bridge
	log    zerolog.Logger
	closed atomic.Bool
}

// Connect establishes the connection to the agent.
func (a *Agent) Connect(ctx context.Context) error {
	return a.bridge.exclusive(ctx, a.eng.Connect)
}

// Disconnect closes the connection to the agent.
func (a *Agent) Disconnect(ctx context.Context) error {
	return a.bridge.exclusive(ctx, a.eng.Disconnect)
}

// RefreshIdentities fetches the agent's current identity list.
func (a *Agent) RefreshIdentities(ctx context.Context) error {
	return a.bridge.exclusive(ctx, a.eng.RefreshIdentities)
}

// Identities returns the identities fetched by the last RefreshIdentities.
func (a *Agent) Identities() ([]Identity, error) {
	return a.eng.Identities()
}

// AuthWithIdentity attempts userauth with one agent-held identity.
func (a *Agent) AuthWithIdentity(ctx context.Context, username string, identity Identity) error {
	a.log.Debug().Str("user", username).Str("comment", identity.Comment).Msg("agent identity auth")
	return a.bridge.shared(ctx, func() error {
		return a.eng.AuthWithIdentity(username, identity)
	})
}

// Close drops the handle's reference to the shared socket. The agent
// connection itself should be shut down with Disconnect first.
func (a *Agent) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	return a.sock.release()
}

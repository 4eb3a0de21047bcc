//go:build !unix

package asyncssh

import (
	"syscall"

	"github.com/pkg/errors"
)

func newConnReactor(conn syscall.Conn) (Reactor, error) {
	return nil, errors.New("no poll-based reactor on this platform; pass WithReactor")
}

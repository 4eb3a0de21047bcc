// Package asyncssh bridges a non-blocking SSH protocol engine to
// cooperatively scheduled Go code.
//
// The engine (an SSH connection with its channels, agent, port-forward
// listeners and SFTP subsystem) is consumed through the narrow contracts in
// this package: every engine operation either succeeds, fails hard, or
// reports [ErrWouldBlock]. The bridge in this package converts such
// single-attempt operations into calls that suspend the calling goroutine
// on a [Reactor] until the socket is ready in the direction the engine
// asked for, then retry.
//
// A [Session] is the root handle, constructed from an already-connected
// socket with [NewSession]. Sub-resources (agent, channels, forward
// listeners, SFTP, files) are opened through factory methods on their
// parent handle and share the session's socket and reactor; the underlying
// connection is released once the last handle holding it is closed.
//
// Channel data streams and SFTP files additionally expose a caller-polled
// byte-stream surface, see [Stream].
package asyncssh

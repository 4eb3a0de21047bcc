package asyncssh

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Sftp is a handle over the SFTP subsystem of a session. It shares the
// session's socket: closing the session while an Sftp handle is open
// keeps the connection alive until the handle is closed too.
type Sftp struct {
	eng    SftpEngine
	sock   *socket
	bridge bridge
	log    zerolog.Logger
	closed atomic.Bool
}

// OpenMode opens the named file with explicit flags, permissions and
// handle type. Most callers can use Open, Create or OpenDir instead.
func (s *Sftp) OpenMode(ctx context.Context, path string, flags OpenFlags, mode fs.FileMode, typ OpenType) (*File, error) {
	eng, err := sharedResult(ctx, &s.bridge, func() (FileEngine, error) {
		return s.eng.OpenMode(path, flags, mode, typ)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "asyncssh: open %s", path)
	}

	f := &File{
		eng:    eng,
		sock:   s.sock.retain(),
		bridge: bridge{sock: s.sock, sess: s.bridge.sess},
	}
	f.stream = Stream{eng: eng, sock: s.sock}
	return f, nil
}

// Open opens the named file for reading.
func (s *Sftp) Open(ctx context.Context, path string) (*File, error) {
	return s.OpenMode(ctx, path, FlagRead, 0o644, OpenTypeFile)
}

// Create creates or truncates the named file and opens it for writing.
func (s *Sftp) Create(ctx context.Context, path string) (*File, error) {
	return s.OpenMode(ctx, path, FlagWrite|FlagCreate|FlagTruncate, 0o644, OpenTypeFile)
}

// OpenDir opens the named directory for reading entries through
// File.ReadDirEntry.
func (s *Sftp) OpenDir(ctx context.Context, path string) (*File, error) {
	return s.OpenMode(ctx, path, FlagRead, 0, OpenTypeDir)
}

// ReadDir returns the entries of the named directory.
func (s *Sftp) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	return sharedResult(ctx, &s.bridge, func() ([]DirEntry, error) {
		return s.eng.ReadDir(path)
	})
}

// Mkdir creates the named directory.
func (s *Sftp) Mkdir(ctx context.Context, path string, mode fs.FileMode) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.Mkdir(path, mode)
	})
}

// Rmdir removes the named (empty) directory.
func (s *Sftp) Rmdir(ctx context.Context, path string) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.Rmdir(path)
	})
}

// Stat returns the attributes of the named file, following symlinks.
func (s *Sftp) Stat(ctx context.Context, path string) (FileStat, error) {
	return sharedResult(ctx, &s.bridge, func() (FileStat, error) {
		return s.eng.Stat(path)
	})
}

// Lstat returns the attributes of the named file without following
// symlinks.
func (s *Sftp) Lstat(ctx context.Context, path string) (FileStat, error) {
	return sharedResult(ctx, &s.bridge, func() (FileStat, error) {
		return s.eng.Lstat(path)
	})
}

// SetStat applies the attributes flagged in stat to the named file.
func (s *Sftp) SetStat(ctx context.Context, path string, stat FileStat) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.SetStat(path, stat)
	})
}

// Symlink creates a symbolic link at linkPath pointing at targetPath.
func (s *Sftp) Symlink(ctx context.Context, targetPath, linkPath string) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.Symlink(targetPath, linkPath)
	})
}

// ReadLink returns the destination of the named symbolic link.
func (s *Sftp) ReadLink(ctx context.Context, path string) (string, error) {
	return sharedResult(ctx, &s.bridge, func() (string, error) {
		return s.eng.ReadLink(path)
	})
}

// RealPath returns the server-canonicalized absolute form of path.
func (s *Sftp) RealPath(ctx context.Context, path string) (string, error) {
	return sharedResult(ctx, &s.bridge, func() (string, error) {
		return s.eng.RealPath(path)
	})
}

// Rename moves oldPath to newPath. flags qualify the request on servers
// that support them; RenameOverwrite|RenameAtomic|RenameNative matches
// POSIX rename expectations.
func (s *Sftp) Rename(ctx context.Context, oldPath, newPath string, flags RenameFlags) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.Rename(oldPath, newPath, flags)
	})
}

// Unlink removes the named file.
func (s *Sftp) Unlink(ctx context.Context, path string) error {
	return s.bridge.shared(ctx, func() error {
		return s.eng.Unlink(path)
	})
}

// Shutdown tears down the SFTP subsystem on the peer. The handle's socket
// reference is not affected; call Close afterwards.
func (s *Sftp) Shutdown(ctx context.Context) error {
	s.log.Debug().Msg("sftp shutdown")
	return s.bridge.exclusive(ctx, s.eng.Shutdown)
}

// Close drops the handle's reference to the shared socket. The parent
// session's connection stays open while other handles reference it.
func (s *Sftp) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	return s.sock.release()
}

package asyncssh

import (
	"context"
	"io/fs"
	"sync/atomic"
)

// File is a handle over one open SFTP file or directory. Metadata
// operations go through the bridge; byte-level I/O goes through the
// embedded stream adapter, which suspends on the reactor directly.
//
// Metadata operations are serialized per handle. Stream I/O is not
// synchronized against them: callers interleaving Read/Write with SetStat
// on the same File must coordinate, the same as with an os.File.
type File struct {
	eng    FileEngine
	sock   *socket
	bridge bridge
	stream Stream
	closed atomic.Bool
}

// Stat returns the file's attributes.
func (f *File) Stat(ctx context.Context) (FileStat, error) {
	return exclusiveResult(ctx, &f.bridge, f.eng.Stat)
}

// SetStat applies the attributes flagged in stat to the file.
func (f *File) SetStat(ctx context.Context, stat FileStat) error {
	return f.bridge.exclusive(ctx, func() error {
		return f.eng.SetStat(stat)
	})
}

// ReadDirEntry returns the next entry of a directory handle. io.EOF
// signals the end of the directory.
func (f *File) ReadDirEntry(ctx context.Context) (DirEntry, error) {
	return exclusiveResult(ctx, &f.bridge, f.eng.ReadDirEntry)
}

// Fsync asks the server to flush the file to stable storage.
func (f *File) Fsync(ctx context.Context) error {
	return f.bridge.exclusive(ctx, f.eng.Fsync)
}

// PollRead attempts one non-suspending read; see Stream.PollRead.
func (f *File) PollRead(p []byte, wake func()) (int, error) {
	return f.stream.PollRead(p, wake)
}

// PollWrite attempts one non-suspending write; see Stream.PollWrite.
func (f *File) PollWrite(p []byte, wake func()) (int, error) {
	return f.stream.PollWrite(p, wake)
}

// PollFlush attempts one non-suspending flush; see Stream.PollFlush.
func (f *File) PollFlush(wake func()) error {
	return f.stream.PollFlush(wake)
}

// ReadContext reads up to len(p) bytes, suspending until data arrives.
func (f *File) ReadContext(ctx context.Context, p []byte) (int, error) {
	return f.stream.ReadContext(ctx, p)
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	return f.stream.Read(p)
}

// WriteContext writes up to len(p) bytes, suspending while the send
// window is exhausted.
func (f *File) WriteContext(ctx context.Context, p []byte) (int, error) {
	return f.stream.WriteContext(ctx, p)
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	return f.stream.Write(p)
}

// FlushContext flushes buffered writes to the peer.
func (f *File) FlushContext(ctx context.Context) error {
	return f.stream.FlushContext(ctx)
}

// Flush flushes buffered writes with no deadline.
func (f *File) Flush() error {
	return f.stream.Flush()
}

// Close closes the remote handle and drops this File's reference to the
// shared socket.
func (f *File) Close(ctx context.Context) error {
	if !f.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	err := f.bridge.exclusive(ctx, f.eng.Close)
	if rerr := f.sock.release(); err == nil {
		err = rerr
	}
	return err
}

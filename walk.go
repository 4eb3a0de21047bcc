package asyncssh

import (
	"context"
	"os"
	"path"

	"github.com/kr/fs"
)

// Walk returns a new Walker rooted at root, traversing the remote tree in
// lexical order. Walking performs bridge operations with the background
// context; impose deadlines per directory with ReadDir/Lstat directly if
// needed.
func (s *Sftp) Walk(root string) *fs.Walker {
	return fs.WalkFS(root, walkFS{s})
}

// walkFS adapts Sftp to the fs.FileSystem contract.
type walkFS struct {
	s *Sftp
}

func (w walkFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	entries, err := w.s.ReadDir(context.Background(), dirname)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, len(entries))
	for i, entry := range entries {
		infos[i] = entry.FileInfo()
	}
	return infos, nil
}

func (w walkFS) Lstat(name string) (os.FileInfo, error) {
	stat, err := w.s.Lstat(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return fileInfo{name: path.Base(name), stat: stat}, nil
}

func (walkFS) Join(elem ...string) string {
	return path.Join(elem...)
}

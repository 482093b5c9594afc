package fixture

import (
	"fmt"
	"io/fs"
	"os"
)

// Loader resolves named external blobs: upload payloads, shader sources,
// expected byte snapshots. Resolution is a collaborator concern; the
// engine only ever sees resolved bytes.
type Loader interface {
	// Blob returns the bytes of a named blob.
	Blob(name string) ([]byte, error)
}

// FSLoader reads blobs from an fs.FS, typically the directory holding the
// fixture file.
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader creates a loader over an fs.FS.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// NewDirLoader creates a loader rooted at a directory path.
func NewDirLoader(dir string) *FSLoader {
	return &FSLoader{fsys: os.DirFS(dir)}
}

// Blob reads a named blob from the filesystem.
func (l *FSLoader) Blob(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("fixture: invalid blob path %q", name)
	}
	return fs.ReadFile(l.fsys, name)
}

// MapLoader serves blobs from memory. Useful in tests.
type MapLoader map[string][]byte

// Blob returns the named blob or an error when absent.
func (l MapLoader) Blob(name string) ([]byte, error) {
	data, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("fixture: no blob %q", name)
	}
	return data, nil
}

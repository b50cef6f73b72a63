// Package filesys provides a small file system abstraction for the hostlook
// tool. It defines the interface the config loader needs and an implementation
// that delegates to the standard library, making code that touches the file
// system easy to test.
package filesys

import (
	"io/fs"
	"os"
)

// ReadWriteFS is the tiny surface the *config loader* needs.
// It is intentionally **smaller** than os.File because callers
// never need random-access writes or directory iteration.
type ReadWriteFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	WriteFile(string, []byte, os.FileMode) error
}

// OS returns a file system implementation that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements ReadWriteFS against the local disk.
// All methods delegate to the standard library.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)                { return os.Stat(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error            { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)                   { return os.Open(p) }
func (OsFS) WriteFile(p string, b []byte, m os.FileMode) error { return os.WriteFile(p, b, m) }

var _ ReadWriteFS = OsFS{}

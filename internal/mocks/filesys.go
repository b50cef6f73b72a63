package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/hostlook/internal/filesys"
)

var _ filesys.ReadWriteFS = (*MockOsFS)(nil)

// MockOsFS is a mock implementation of the ReadWriteFS interface.
// It is built on testify/mock and adheres to the methods defined on OsFS.
type MockOsFS struct {
	mock.Mock
}

// Stat mocks the Stat method.
func (m *MockOsFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	// Need to handle potential nil interface return
	var fileInfo fs.FileInfo
	if args.Get(0) != nil {
		fileInfo = args.Get(0).(fs.FileInfo)
	}
	return fileInfo, args.Error(1)
}

// MkdirAll mocks the MkdirAll method.
func (m *MockOsFS) MkdirAll(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}

// Open mocks the Open method.
func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	// Need to handle potential nil pointer return
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// WriteFile mocks the WriteFile method.
func (m *MockOsFS) WriteFile(p string, b []byte, mode os.FileMode) error {
	args := m.Called(p, b, mode)
	return args.Error(0)
}

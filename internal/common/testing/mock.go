// Package testing provides test doubles for the common package.
package testing

import (
	"io/fs"

	"github.com/stretchr/testify/mock"

	"github.com/isseis/go-wisty-fileio/internal/common"
)

// MockFileSystem is a testify mock of common.FileSystem. Calls that are not set up
// with On(...) fall through to Fallback when it is non-nil, which lets a
// test inject a single failure into otherwise real disk operations.
type MockFileSystem struct {
	mock.Mock
	Fallback common.FileSystem
}

func (m *MockFileSystem) handled(method string) bool {
	for _, call := range m.ExpectedCalls {
		if call.Method == method {
			return true
		}
	}
	return m.Fallback == nil
}

// Stat implements common.FileSystem.
func (m *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	if !m.handled("Stat") {
		return m.Fallback.Stat(path)
	}
	args := m.Called(path)
	info, _ := args.Get(0).(fs.FileInfo)
	return info, args.Error(1)
}

// Lstat implements common.FileSystem.
func (m *MockFileSystem) Lstat(path string) (fs.FileInfo, error) {
	if !m.handled("Lstat") {
		return m.Fallback.Lstat(path)
	}
	args := m.Called(path)
	info, _ := args.Get(0).(fs.FileInfo)
	return info, args.Error(1)
}

// EvalSymlinks implements common.FileSystem.
func (m *MockFileSystem) EvalSymlinks(path string) (string, error) {
	if !m.handled("EvalSymlinks") {
		return m.Fallback.EvalSymlinks(path)
	}
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

// Remove implements common.FileSystem.
func (m *MockFileSystem) Remove(path string) error {
	if !m.handled("Remove") {
		return m.Fallback.Remove(path)
	}
	return m.Called(path).Error(0)
}

// Rename implements common.FileSystem.
func (m *MockFileSystem) Rename(oldPath, newPath string) error {
	if !m.handled("Rename") {
		return m.Fallback.Rename(oldPath, newPath)
	}
	return m.Called(oldPath, newPath).Error(0)
}

var _ common.FileSystem = (*MockFileSystem)(nil)

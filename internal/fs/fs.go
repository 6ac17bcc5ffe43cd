package fs

import (
	"io"
	"os"
)

// FileSystem is the set of calls a split pass makes: open the store file,
// create the partition directory and files, stat for size estimation, and
// remove or rename on cleanup.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(name string) error
	Rename(oldpath, newpath string) error
}

// File is the subset of *os.File used on store and partition files. Fd
// feeds the fadvise hints.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
	Sync() error
	Fd() uintptr
}

// partitionPerm is the mode of files created by Create.
const partitionPerm os.FileMode = 0o644

// LocalFS passes every call to package os.
type LocalFS struct{}

// Default is used whenever no FileSystem is configured.
var Default FileSystem = LocalFS{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (LocalFS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (LocalFS) Remove(name string) error                     { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }

// Open opens name for reading.
func Open(fsys FileSystem, name string) (File, error) {
	return fsys.OpenFile(name, os.O_RDONLY, 0)
}

// Create opens name for writing, truncating an existing file.
func Create(fsys FileSystem, name string) (File, error) {
	return fsys.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, partitionPerm)
}

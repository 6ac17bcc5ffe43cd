package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a fault that does not set its own.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior for files whose name matches a rule.
type Fault struct {
	FailOnOpen         bool
	FailAfterBytes     int64 // Fail writes after this many bytes written TO THIS FILE. -1 to disable.
	FailAfterBytesRead int64 // Fail reads after this many bytes read FROM THIS FILE. -1 to disable.
	FailOnClose        bool
	Err                error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

type rule struct {
	pattern string
	fault   Fault
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	Default Fault // Fallback

	// MkdirErr, when set, is returned by MkdirAll without touching FS.
	MkdirErr error
	// RemoveErr, when set, is returned by Remove without touching FS.
	RemoveErr error
	// RenameErr, when set, is returned by Rename without touching FS.
	RenameErr error

	mu     sync.Mutex
	rules  []rule
	opened []string
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS: fs,
		Default: Fault{
			FailAfterBytes:     -1,
			FailAfterBytesRead: -1,
		},
	}
}

// AddRule adds a fault injection rule for names containing pattern.
// Rules are evaluated in insertion order; the last match wins.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{pattern: pattern, fault: fault})
}

// Opened returns the names passed to OpenFile, in call order.
func (f *FaultyFS) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *FaultyFS) match(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, name)
	fault := f.Default
	for _, r := range f.rules {
		if strings.Contains(name, r.pattern) {
			fault = r.fault
		}
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.match(name)
	if fault.FailOnOpen {
		return nil, &os.PathError{Op: "open", Path: name, Err: fault.err()}
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	return f.FS.Remove(name)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if f.RenameErr != nil {
		return f.RenameErr
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	if f.MkdirErr != nil {
		return f.MkdirErr
	}
	return f.FS.MkdirAll(path, perm)
}

type faultyFile struct {
	File
	fault   Fault
	written int64
	read    int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	if ff.fault.FailAfterBytesRead >= 0 && ff.read+int64(len(p)) > ff.fault.FailAfterBytesRead {
		allowed := ff.fault.FailAfterBytesRead - ff.read
		if allowed <= 0 {
			return 0, ff.fault.err()
		}
		p = p[:allowed]
	}
	n, err := ff.File.Read(p)
	ff.read += int64(n)
	return n, err
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}

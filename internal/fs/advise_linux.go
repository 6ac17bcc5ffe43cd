//go:build linux

package fs

import "golang.org/x/sys/unix"

// AdviseSequential tells the kernel f will be read front to back once,
// which doubles readahead for the streaming pass.
func AdviseSequential(f File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// AdviseDontNeed drops f's pages from the page cache. Partitions are not
// read back by the splitter, so keeping them cached only evicts useful data.
func AdviseDontNeed(f File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}

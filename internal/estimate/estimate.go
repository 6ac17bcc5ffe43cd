// Package estimate computes the uncompressed size of a store file.
package estimate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/fs"
)

// ErrTrailer is returned when a gzip file is too short to carry a header
// and trailer, or does not start with the gzip magic.
var ErrTrailer = errors.New("malformed gzip trailer")

const (
	gzipHeaderLen  = 10
	gzipTrailerLen = 8
)

// Size returns the uncompressed byte size of the file at path.
//
// Plain files report their length. Gzip files report the ISIZE trailer
// field, which is the size modulo 2^32: inputs of 4 GiB or more wrap.
// LZ4 and zstd carry no reliable size field, so the stream is decompressed
// and counted.
func Size(fsys fs.FileSystem, path string, c codec.Compression) (int64, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	switch c {
	case codec.CompressionNone:
		fi, err := fsys.Stat(path)
		if err != nil {
			return 0, err
		}
		return fi.Size(), nil
	case codec.CompressionGzip:
		f, err := fs.Open(fsys, path)
		if err != nil {
			return 0, err
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			return 0, err
		}
		n, err := GzipTrailer(f, fi.Size())
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return int64(n), nil
	default:
		f, err := fs.Open(fsys, path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		return Count(f, c)
	}
}

// GzipTrailer reads the ISIZE field of the gzip member ending at size.
func GzipTrailer(r io.ReaderAt, size int64) (uint32, error) {
	if size < gzipHeaderLen+gzipTrailerLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrTrailer, size)
	}

	var magic [2]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTrailer, err)
	}
	if magic[0] != 0x1f || magic[1] != 0x8b {
		return 0, fmt.Errorf("%w: bad magic %x", ErrTrailer, magic)
	}

	var isize [4]byte
	if _, err := r.ReadAt(isize[:], size-4); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTrailer, err)
	}
	return binary.LittleEndian.Uint32(isize[:]), nil
}

// Count decompresses r and returns the number of bytes it yields.
func Count(r io.Reader, c codec.Compression) (int64, error) {
	dec, err := c.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer dec.Close()
	return io.Copy(io.Discard, dec)
}

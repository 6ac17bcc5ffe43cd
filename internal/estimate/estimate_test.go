package estimate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/fs"
)

func writeCompressed(t *testing.T, c codec.Compression, payload []byte) string {
	t.Helper()

	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "store-sorted.json"+c.Extension())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestSize(t *testing.T) {
	payload := []byte(strings.Repeat("/content/a|{\"jcr:primaryType\":\"nam:nt:folder\"}\n", 1000))

	for _, c := range []codec.Compression{codec.CompressionNone, codec.CompressionGzip, codec.CompressionLZ4, codec.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			path := writeCompressed(t, c, payload)

			n, err := Size(fs.Default, path, c)
			require.NoError(t, err)
			assert.Equal(t, int64(len(payload)), n)
		})
	}
}

func TestSizeEmptyGzip(t *testing.T) {
	path := writeCompressed(t, codec.CompressionGzip, nil)

	n, err := Size(nil, path, codec.CompressionGzip)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGzipTrailerMalformed(t *testing.T) {
	_, err := GzipTrailer(bytes.NewReader([]byte{0x1f, 0x8b, 0}), 3)
	require.ErrorIs(t, err, ErrTrailer)

	notGzip := bytes.Repeat([]byte{'x'}, 32)
	_, err = GzipTrailer(bytes.NewReader(notGzip), int64(len(notGzip)))
	require.ErrorIs(t, err, ErrTrailer)

	dir := t.TempDir()
	path := filepath.Join(dir, "short.gz")
	require.NoError(t, os.WriteFile(path, []byte{0x1f, 0x8b, 8, 0}, 0o644))
	_, err = Size(fs.Default, path, codec.CompressionGzip)
	require.ErrorIs(t, err, ErrTrailer)
}

func TestSizeMissingFile(t *testing.T) {
	_, err := Size(fs.Default, filepath.Join(t.TempDir(), "missing"), codec.CompressionNone)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

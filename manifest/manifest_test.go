package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flatsplit/blobstore"
	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/fs"
)

func sample() *Manifest {
	return &Manifest{
		Version:     CurrentVersion,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:      "store-sorted.json.gz",
		Compression: codec.CompressionGzip,
		TotalSize:   300,
		Threshold:   100,
		Lines:       9,
		Partitions: []Partition{
			{Index: 1, File: "split-1-store-sorted.json.gz", Bytes: 120, Records: 4, FirstPath: "/"},
			{Index: 2, File: "split-2-store-sorted.json.gz", Bytes: 110, Records: 3, FirstPath: "/b", FirstCategory: "dam:Asset"},
			{Index: 3, File: "split-3-store-sorted.json.gz", Bytes: 70, Records: 2, FirstPath: "/c"},
		},
		Cuts:                  roaring64.BitmapOf(4, 7),
		PreferredPathElements: []string{"jcr:content"},
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			m := sample()
			data, err := m.Encode(c)
			require.NoError(t, err)

			var raw map[string]any
			require.NoError(t, json.Unmarshal(data, &raw))
			assert.Equal(t, "gzip", raw["compression"])
			assert.NotEmpty(t, raw["cuts"])

			got, err := Decode(c, data)
			require.NoError(t, err)
			assert.Equal(t, m.Partitions, got.Partitions)
			assert.Equal(t, []uint64{4, 7}, got.Cuts.ToArray())
			assert.Equal(t, codec.CompressionGzip, got.Compression)
			assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, []string{"split-1-store-sorted.json.gz", "split-2-store-sorted.json.gz", "split-3-store-sorted.json.gz"}, got.Files())
		})
	}
}

func TestValidate(t *testing.T) {
	m := sample()
	require.NoError(t, m.Validate())

	m.Partitions[1].Index = 5
	assert.ErrorIs(t, m.Validate(), ErrInvalid)

	m = sample()
	m.Cuts = roaring64.BitmapOf(4)
	assert.ErrorIs(t, m.Validate(), ErrInvalid)

	m = sample()
	m.Cuts = roaring64.BitmapOf(4, 9)
	assert.ErrorIs(t, m.Validate(), ErrInvalid)

	m = sample()
	m.Partitions = nil
	assert.ErrorIs(t, m.Validate(), ErrInvalid)

	skipped := &Manifest{Version: CurrentVersion, Skipped: true, Partitions: []Partition{{Index: 1, File: "store-sorted.json"}}}
	assert.NoError(t, skipped.Validate())
}

func TestVersioning(t *testing.T) {
	dir := t.TempDir()
	path, err := sample().Write(nil, dir)
	require.NoError(t, err)

	loaded, err := Read(nil, path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, loaded.Version)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["version"] = 999
	newData, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, newData, 0o644))

	_, err = Read(nil, path)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = Read(nil, filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFailureLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	faulty := fs.NewFaultyFS(nil)
	faulty.RenameErr = fs.ErrInjected

	_, err := sample().Write(faulty, dir)
	require.ErrorIs(t, err, fs.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, sample().Store(ctx, store, "run-1/"+FileName))

	got, err := Load(ctx, store, "run-1/"+FileName)
	require.NoError(t, err)
	assert.Len(t, got.Partitions, 3)

	_, err = Load(ctx, store, "run-2/"+FileName)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Package manifest describes the partitions of a split so downstream
// indexers can find them without listing directories.
package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/flatsplit/blobstore"
	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/fs"
)

const (
	// FileName is the name a manifest is written under.
	FileName = "MANIFEST.json"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Partition describes one partition file.
type Partition struct {
	Index         int    `json:"index"`
	File          string `json:"file"` // Relative to the manifest
	Bytes         int64  `json:"bytes"`
	Records       int64  `json:"records"`
	FirstPath     string `json:"first_path,omitempty"`
	FirstCategory string `json:"first_category,omitempty"`
}

// Manifest describes the outcome of one split.
type Manifest struct {
	Version     int
	CreatedAt   time.Time
	Source      string
	Compression codec.Compression
	TotalSize   int64
	Threshold   int64
	Lines       int64
	Skipped     bool
	Partitions  []Partition
	// Cuts holds the 0-based line of the first record of every partition
	// after the first.
	Cuts                  *roaring64.Bitmap
	PreferredPathElements []string
}

type wire struct {
	Version               int               `json:"version"`
	CreatedAt             time.Time         `json:"created_at"`
	Source                string            `json:"source"`
	Compression           codec.Compression `json:"compression"`
	TotalSize             int64             `json:"total_size"`
	Threshold             int64             `json:"threshold"`
	Lines                 int64             `json:"lines"`
	Skipped               bool              `json:"skipped,omitempty"`
	Partitions            []Partition       `json:"partitions"`
	Cuts                  []byte            `json:"cuts,omitempty"` // roaring64, base64 in JSON
	PreferredPathElements []string          `json:"preferred_path_elements,omitempty"`
}

// Validate checks the partition numbering and the cut bitmap.
func (m *Manifest) Validate() error {
	if len(m.Partitions) == 0 {
		return fmt.Errorf("%w: no partitions", ErrInvalid)
	}
	for i, p := range m.Partitions {
		if p.Index != i+1 {
			return fmt.Errorf("%w: partition %d has index %d", ErrInvalid, i+1, p.Index)
		}
		if p.File == "" {
			return fmt.Errorf("%w: partition %d has no file", ErrInvalid, p.Index)
		}
	}
	if m.Skipped {
		return nil
	}

	var cuts uint64
	if m.Cuts != nil {
		cuts = m.Cuts.GetCardinality()
		if cuts > 0 && m.Cuts.Maximum() >= uint64(m.Lines) {
			return fmt.Errorf("%w: cut at line %d beyond %d lines", ErrInvalid, m.Cuts.Maximum(), m.Lines)
		}
	}
	if cuts != uint64(len(m.Partitions)-1) {
		return fmt.Errorf("%w: %d cuts for %d partitions", ErrInvalid, cuts, len(m.Partitions))
	}
	return nil
}

// Files returns the partition file names in order.
func (m *Manifest) Files() []string {
	files := make([]string, len(m.Partitions))
	for i, p := range m.Partitions {
		files[i] = p.File
	}
	return files
}

// Encode serializes the manifest. If c is nil, codec.Default is used.
func (m *Manifest) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	w := wire{
		Version:               m.Version,
		CreatedAt:             m.CreatedAt,
		Source:                m.Source,
		Compression:           m.Compression,
		TotalSize:             m.TotalSize,
		Threshold:             m.Threshold,
		Lines:                 m.Lines,
		Skipped:               m.Skipped,
		Partitions:            m.Partitions,
		PreferredPathElements: m.PreferredPathElements,
	}
	if m.Cuts != nil && !m.Cuts.IsEmpty() {
		m.Cuts.RunOptimize()
		data, err := m.Cuts.ToBytes()
		if err != nil {
			return nil, fmt.Errorf("encode cuts: %w", err)
		}
		w.Cuts = data
	}

	return c.Marshal(w)
}

// Decode parses and validates a manifest. If c is nil, codec.Default is used.
func Decode(c codec.Codec, data []byte) (*Manifest, error) {
	if c == nil {
		c = codec.Default
	}

	var w wire
	if err := c.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if w.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrIncompatibleVersion, w.Version, CurrentVersion)
	}

	m := &Manifest{
		Version:               w.Version,
		CreatedAt:             w.CreatedAt,
		Source:                w.Source,
		Compression:           w.Compression,
		TotalSize:             w.TotalSize,
		Threshold:             w.Threshold,
		Lines:                 w.Lines,
		Skipped:               w.Skipped,
		Partitions:            w.Partitions,
		Cuts:                  roaring64.New(),
		PreferredPathElements: w.PreferredPathElements,
	}
	if len(w.Cuts) > 0 {
		if err := m.Cuts.UnmarshalBinary(w.Cuts); err != nil {
			return nil, fmt.Errorf("%w: cuts: %v", ErrInvalid, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Write atomically writes the manifest to dir/FileName and returns the path.
func (m *Manifest) Write(fsys fs.FileSystem, dir string) (string, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	data, err := m.Encode(codec.Default)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName)
	tmpPath := path + ".tmp"

	f, err := fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fsys.Remove(tmpPath)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		fsys.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		fsys.Remove(tmpPath)
		return "", err
	}

	if err := fsys.Rename(tmpPath, path); err != nil {
		fsys.Remove(tmpPath)
		return "", err
	}

	return path, nil
}

// Read reads a manifest file.
func Read(fsys fs.FileSystem, path string) (*Manifest, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	f, err := fs.Open(fsys, path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Decode(codec.Default, data)
}

// Store uploads the manifest to store under name.
func (m *Manifest) Store(ctx context.Context, store blobstore.BlobStore, name string) error {
	data, err := m.Encode(codec.Default)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// Load downloads and decodes the manifest stored under name.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if blobstore.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return Decode(codec.Default, data)
}

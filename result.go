package flatsplit

import (
	"path/filepath"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/manifest"
)

// SkipReason explains why a split returned the original file.
type SkipReason string

const (
	// SkipNone marks a result that was actually split.
	SkipNone SkipReason = ""
	// SkipBelowMinimum is used when the threshold is below the minimum split size.
	SkipBelowMinimum SkipReason = "below-minimum"
	// SkipSinglePartition is used when the partition count is one.
	SkipSinglePartition SkipReason = "single-partition"
	// SkipSetupFailure is used when the work directory could not be created.
	SkipSetupFailure SkipReason = "setup-failure"
)

// Partition describes one output file.
type Partition struct {
	// Index is 1-based and equals the position in Result.Partitions plus one.
	Index int
	Path  string
	// Bytes is the uncompressed size written to the partition.
	Bytes         int64
	Records       int64
	FirstPath     string
	FirstCategory string
}

// Result is the outcome of a split.
type Result struct {
	Source      string
	Compression codec.Compression
	// Partitions in write order. Concatenated, they equal the input.
	Partitions []Partition

	Skipped    bool
	SkipReason SkipReason

	// TotalSize is the estimated uncompressed input size.
	TotalSize int64
	Threshold int64
	// Lines is the number of records streamed; zero when skipped.
	Lines int64
	// Cuts holds the 0-based line of the first record of every partition
	// after the first.
	Cuts *roaring64.Bitmap

	PreferredPathElements []string
	OriginalDeleted       bool
}

// Files returns the partition paths in order.
func (r *Result) Files() []string {
	files := make([]string, len(r.Partitions))
	for i, p := range r.Partitions {
		files[i] = p.Path
	}
	return files
}

// Manifest converts the result. Partition files are referenced by base name.
func (r *Result) Manifest() *manifest.Manifest {
	m := &manifest.Manifest{
		Version:               manifest.CurrentVersion,
		CreatedAt:             time.Now().UTC(),
		Source:                filepath.Base(r.Source),
		Compression:           r.Compression,
		TotalSize:             r.TotalSize,
		Threshold:             r.Threshold,
		Lines:                 r.Lines,
		Skipped:               r.Skipped,
		Cuts:                  roaring64.New(),
		PreferredPathElements: append([]string(nil), r.PreferredPathElements...),
	}
	if r.Cuts != nil {
		m.Cuts = r.Cuts.Clone()
	}
	for _, p := range r.Partitions {
		m.Partitions = append(m.Partitions, manifest.Partition{
			Index:         p.Index,
			File:          filepath.Base(p.Path),
			Bytes:         p.Bytes,
			Records:       p.Records,
			FirstPath:     p.FirstPath,
			FirstCategory: p.FirstCategory,
		})
	}
	return m
}

func skipped(source string, c codec.Compression, reason SkipReason, total, threshold int64) *Result {
	return &Result{
		Source:      source,
		Compression: c,
		Partitions:  []Partition{{Index: 1, Path: source, Bytes: total}},
		Skipped:     true,
		SkipReason:  reason,
		TotalSize:   total,
		Threshold:   threshold,
		Cuts:        roaring64.New(),
	}
}

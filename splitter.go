package flatsplit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/ancestry"
	"github.com/hupe1980/flatsplit/internal/estimate"
	"github.com/hupe1980/flatsplit/internal/fs"
	"github.com/hupe1980/flatsplit/internal/planner"
	"github.com/hupe1980/flatsplit/nodetype"
	"github.com/hupe1980/flatsplit/record"
)

// StoreFileName is the base name partitions are derived from.
const StoreFileName = "store-sorted.json"

const (
	readBufferSize  = 1 << 20
	writeBufferSize = 256 << 10
)

// PartitionName returns the file name of the partition with the given
// 1-based index, e.g. "split-3-store-sorted.json.gz".
func PartitionName(index int, c codec.Compression) string {
	return fmt.Sprintf("split-%d-%s%s", index, StoreFileName, c.Extension())
}

// Splitter splits one store file into partitions.
//
// A Splitter may be reused for sequential calls but is not safe for
// concurrent use.
type Splitter struct {
	path string
	opts options
}

// New creates a Splitter for the store file at path.
func New(path string, optFns ...Option) (*Splitter, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if o.partitions < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPartitionCount, o.partitions)
	}
	if o.workDir == "" {
		o.workDir = filepath.Join(filepath.Dir(path), SplitDirName)
	}

	return &Splitter{path: path, opts: o}, nil
}

// Path returns the input file.
func (s *Splitter) Path() string { return s.path }

// WorkDir returns the directory partitions are written to.
func (s *Splitter) WorkDir() string { return s.opts.workDir }

// Split streams the input once and writes the partitions.
//
// When no split is necessary the result holds the input as its only
// partition and nothing is written. A failure mid-stream returns a
// *StreamError and leaves the partitions written so far in the work
// directory; the input is never deleted in that case.
func (s *Splitter) Split() (*Result, error) {
	start := time.Now()
	log := s.opts.logger.WithSource(s.path)

	res, err := s.split(log)

	mc := s.opts.metricsCollector
	switch {
	case err != nil:
		mc.RecordSplit(0, 0, time.Since(start), err)
		log.LogSplit(nil, err)
	case res.Skipped:
		mc.RecordSkip(res.SkipReason)
	default:
		var written int64
		for _, p := range res.Partitions {
			written += p.Bytes
		}
		mc.RecordSplit(len(res.Partitions), written, time.Since(start), nil)
		log.LogSplit(res, nil)
	}

	return res, err
}

func (s *Splitter) split(log *Logger) (*Result, error) {
	o := &s.opts

	total, err := estimate.Size(o.fs, s.path, o.compression)
	if err != nil {
		return nil, fmt.Errorf("estimate size of %s: %w", s.path, err)
	}

	threshold := total / int64(o.partitions)
	if o.threshold > 0 {
		threshold = o.threshold
	}
	log.LogPlan(total, threshold, o.partitions)

	var reason SkipReason
	switch {
	case o.partitions <= 1:
		reason = SkipSinglePartition
	case threshold < o.minimumSplitSize:
		reason = SkipBelowMinimum
	}
	if reason != SkipNone {
		log.LogSkip(reason, total, threshold)
		return skipped(s.path, o.compression, reason, total, threshold), nil
	}

	if err := o.fs.MkdirAll(o.workDir, 0o755); err != nil {
		log.LogSetupFailure(o.workDir, err)
		return skipped(s.path, o.compression, SkipSetupFailure, total, threshold), nil
	}

	plan := planner.Planner{
		Threshold:     threshold,
		MaxPartitions: o.partitions,
		Protected:     s.protected(log),
	}

	res := &Result{
		Source:                s.path,
		Compression:           o.compression,
		TotalSize:             total,
		Threshold:             threshold,
		Cuts:                  roaring64.New(),
		PreferredPathElements: sortedUnique(o.preferred),
	}
	if err := s.stream(log, res, plan); err != nil {
		return nil, err
	}

	if o.deleteOriginal {
		if err := o.fs.Remove(s.path); err != nil {
			log.Warn("failed to delete original", "error", err)
		} else {
			res.OriginalDeleted = true
		}
	}

	return res, nil
}

func (s *Splitter) protected(log *Logger) nodetype.Set {
	set := nodetype.NewSet(s.opts.protected...)

	var unresolved []string
	if r := s.opts.resolver; r != nil {
		for name := range r.Protected() {
			set[name] = struct{}{}
		}
		unresolved = r.Unresolved()
	}

	log.LogProtected(set.Sorted(), unresolved)
	return set
}

func (s *Splitter) stream(log *Logger, res *Result, plan planner.Planner) (err error) {
	o := &s.opts

	in, err := fs.Open(o.fs, s.path)
	if err != nil {
		return &StreamError{Op: "open", Path: s.path, Line: -1, Err: err}
	}
	defer in.Close()
	_ = fs.AdviseSequential(in)

	dec, err := o.compression.NewReader(in)
	if err != nil {
		return &StreamError{Op: "read", Path: s.path, Line: 0, Err: err}
	}
	defer dec.Close()

	r := bufio.NewReaderSize(dec, readBufferSize)
	tracker := ancestry.New(!o.lenient)

	w, err := s.openPartition(1)
	if err != nil {
		return err
	}
	defer func() {
		if w != nil {
			_ = w.Close()
		}
	}()

	var (
		buf      []byte
		line     int64
		sinceCut int64
	)
	for {
		var rerr error
		buf, rerr = readLine(r, buf[:0])
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return &StreamError{Op: "read", Path: s.path, Line: line, Err: rerr}
		}
		if len(buf) > 0 {
			text := record.TrimTerminator(string(buf))

			rec, perr := record.Parse(text)
			if perr != nil {
				return &StreamError{Op: "read", Path: s.path, Line: line, Err: perr}
			}
			category, perr := o.categoryReader.Category(text)
			if perr != nil {
				return &StreamError{Op: "read", Path: s.path, Line: line, Err: perr}
			}
			if terr := tracker.Update(rec.Depth(), category); terr != nil {
				return &StreamError{Op: "read", Path: s.path, Line: line, Err: fmt.Errorf("%s: %w", rec.Path, terr)}
			}

			if plan.Decide(sinceCut, w.part.Index, tracker.Stack()) {
				closed := w.part
				cerr := w.Close()
				w = nil
				if cerr != nil {
					return &StreamError{Op: "close", Path: closed.Path, Line: line, Err: cerr}
				}
				res.Partitions = append(res.Partitions, closed)
				res.Cuts.Add(uint64(line))
				o.metricsCollector.RecordRotation(closed.Index, closed.Bytes)
				log.LogRotation(closed, line)

				if w, err = s.openPartition(closed.Index + 1); err != nil {
					return err
				}
				sinceCut = 0
			}

			if w.part.Records == 0 {
				w.part.FirstPath = rec.Path
				w.part.FirstCategory = category
			}
			if werr := w.WriteRecord(buf); werr != nil {
				return &StreamError{Op: "write", Path: w.part.Path, Line: line, Err: werr}
			}
			sinceCut += int64(len(buf))
			line++
		}

		if rerr != nil {
			break
		}
	}

	last := w.part
	cerr := w.Close()
	w = nil
	if cerr != nil {
		return &StreamError{Op: "close", Path: last.Path, Line: -1, Err: cerr}
	}
	res.Partitions = append(res.Partitions, last)
	res.Lines = line

	return nil
}

// readLine reads up to and including the next '\n'. The last line of the
// input may lack the terminator, in which case it is returned with io.EOF.
func readLine(r *bufio.Reader, buf []byte) ([]byte, error) {
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if !errors.Is(err, bufio.ErrBufferFull) {
			return buf, err
		}
	}
}

// partitionWriter chains a buffer and a compressor in front of one
// partition file.
type partitionWriter struct {
	f    fs.File
	comp io.WriteCloser
	bw   *bufio.Writer
	part Partition
}

func (s *Splitter) openPartition(index int) (*partitionWriter, error) {
	path := filepath.Join(s.opts.workDir, PartitionName(index, s.opts.compression))

	f, err := fs.Create(s.opts.fs, path)
	if err != nil {
		return nil, &StreamError{Op: "open", Path: path, Line: -1, Err: err}
	}
	comp, err := s.opts.compression.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, &StreamError{Op: "open", Path: path, Line: -1, Err: err}
	}

	return &partitionWriter{
		f:    f,
		comp: comp,
		bw:   bufio.NewWriterSize(comp, writeBufferSize),
		part: Partition{Index: index, Path: path},
	}, nil
}

// WriteRecord appends one record, terminator included.
func (w *partitionWriter) WriteRecord(line []byte) error {
	n, err := w.bw.Write(line)
	w.part.Bytes += int64(n)
	if err != nil {
		return err
	}
	w.part.Records++
	return nil
}

// Close flushes the buffer and the compressor, then closes the file. The
// file is closed even when flushing fails.
func (w *partitionWriter) Close() error {
	err := w.bw.Flush()
	if cerr := w.comp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		_ = fs.AdviseDontNeed(w.f)
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

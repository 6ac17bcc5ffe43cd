// Package publish uploads the partitions of a split, followed by its
// manifest, to a blob store.
package publish

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/flatsplit"
	"github.com/hupe1980/flatsplit/blobstore"
	"github.com/hupe1980/flatsplit/internal/fs"
	"github.com/hupe1980/flatsplit/manifest"
	"github.com/hupe1980/flatsplit/resource"
)

// DefaultWorkers is the number of concurrent uploads.
const DefaultWorkers = 4

type options struct {
	workers          int
	bytesPerSecond   int64
	maxInFlightBytes int64
	logger           *flatsplit.Logger
	fs               fs.FileSystem
}

// Option configures a Publisher.
type Option func(*options)

// WithWorkers sets the number of concurrent uploads.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBytesPerSecond caps the total upload bandwidth. 0 means unlimited.
func WithBytesPerSecond(n int64) Option {
	return func(o *options) {
		o.bytesPerSecond = n
	}
}

// WithMaxInFlightBytes caps the size of the files being uploaded at once.
func WithMaxInFlightBytes(n int64) Option {
	return func(o *options) {
		o.maxInFlightBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *flatsplit.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = flatsplit.NoopLogger()
		}
		o.logger = l
	}
}

func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// Publisher copies split results into a BlobStore.
// It is safe for concurrent use.
type Publisher struct {
	store blobstore.BlobStore
	ctrl  *resource.Controller
	opts  options
}

// Report describes a finished upload.
type Report struct {
	Manifest string
	Files    []string
	Bytes    int64
	Duration time.Duration
}

// New creates a Publisher writing to store.
func New(store blobstore.BlobStore, optFns ...Option) *Publisher {
	o := options{
		workers: DefaultWorkers,
		logger:  flatsplit.DefaultLogger(),
		fs:      fs.Default,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}

	return &Publisher{
		store: store,
		ctrl: resource.NewController(resource.Config{
			MaxWorkers:       int64(o.workers),
			BytesPerSecond:   o.bytesPerSecond,
			MaxInFlightBytes: o.maxInFlightBytes,
		}),
		opts: o,
	}
}

// Publish uploads every partition of res under prefix and then stores the
// manifest as prefix/MANIFEST.json. A skipped result publishes the
// original file as its single partition.
func (p *Publisher) Publish(ctx context.Context, res *flatsplit.Result, prefix string) (*Report, error) {
	return p.publish(ctx, res.Manifest(), res.Files(), prefix)
}

// PublishManifest uploads a manifest read back from disk. Partition files
// are looked up in dir.
func (p *Publisher) PublishManifest(ctx context.Context, m *manifest.Manifest, dir, prefix string) (*Report, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	files := make([]string, len(m.Partitions))
	for i, part := range m.Partitions {
		files[i] = filepath.Join(dir, part.File)
	}
	return p.publish(ctx, m, files, prefix)
}

func (p *Publisher) publish(ctx context.Context, m *manifest.Manifest, files []string, prefix string) (*Report, error) {
	start := time.Now()
	log := p.opts.logger.With("prefix", prefix)

	report := &Report{
		Manifest: path.Join(prefix, manifest.FileName),
		Files:    make([]string, len(files)),
	}
	sizes := make([]int64, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, local := range files {
		name := path.Join(prefix, filepath.Base(local))
		report.Files[i] = name

		if err := p.ctrl.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer p.ctrl.ReleaseWorker()
			n, err := p.upload(gctx, local, name)
			if err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			sizes[i] = n
			log.Debug("uploaded partition", "name", name, "size", humanize.IBytes(uint64(n)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("publish failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := m.Store(ctx, p.store, report.Manifest); err != nil {
		return nil, fmt.Errorf("store manifest: %w", err)
	}

	for _, n := range sizes {
		report.Bytes += n
	}
	report.Duration = time.Since(start)

	log.Info("published",
		"partitions", len(files),
		"size", humanize.IBytes(uint64(report.Bytes)),
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Publisher) upload(ctx context.Context, local, name string) (int64, error) {
	info, err := p.opts.fs.Stat(local)
	if err != nil {
		return 0, err
	}
	if err := p.ctrl.AcquireBytes(ctx, info.Size()); err != nil {
		return 0, err
	}
	defer p.ctrl.ReleaseBytes(info.Size())

	f, err := fs.Open(p.opts.fs, local)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w, err := p.store.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, resource.NewReader(ctx, f, p.ctrl))
	if err != nil {
		_ = blobstore.Abort(ctx, w)
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, err
	}
	return n, nil
}

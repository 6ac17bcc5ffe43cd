package flatsplit

import (
	"github.com/hupe1980/flatsplit/codec"
	"github.com/hupe1980/flatsplit/internal/fs"
	"github.com/hupe1980/flatsplit/nodetype"
	"github.com/hupe1980/flatsplit/record"
)

const (
	// DefaultPartitionCount is the partition count used when none is configured.
	DefaultPartitionCount = 8

	// DefaultMinimumSplitSize is the smallest per-partition threshold worth splitting for.
	DefaultMinimumSplitSize = 10 << 20

	// SplitDirName is the work directory created next to the input by default.
	SplitDirName = "split"
)

type options struct {
	workDir          string
	partitions       int
	minimumSplitSize int64
	threshold        int64
	compression      codec.Compression
	deleteOriginal   bool
	protected        []string
	resolver         *nodetype.Resolver
	categoryReader   record.CategoryReader
	lenient          bool
	preferred        []string
	logger           *Logger
	metricsCollector MetricsCollector
	fs               fs.FileSystem
}

func defaultOptions() options {
	return options{
		partitions:       DefaultPartitionCount,
		minimumSplitSize: DefaultMinimumSplitSize,
		compression:      codec.CompressionGzip,
		categoryReader:   record.NewJSONCategoryReader(),
		logger:           DefaultLogger(),
		metricsCollector: NoopMetricsCollector{},
		fs:               fs.Default,
	}
}

// Option configures a Splitter.
type Option func(*options)

// WithWorkDir sets the directory partitions are written to.
// Defaults to a "split" directory next to the input file.
func WithWorkDir(dir string) Option {
	return func(o *options) {
		o.workDir = dir
	}
}

// WithPartitionCount sets the maximum number of partitions.
// A count of one disables splitting; New rejects counts below one.
func WithPartitionCount(n int) Option {
	return func(o *options) {
		o.partitions = n
	}
}

// WithMinimumSplitSize sets the smallest threshold (bytes per partition)
// for which a split is attempted. Pass 0 to always split.
func WithMinimumSplitSize(n int64) Option {
	return func(o *options) {
		o.minimumSplitSize = n
	}
}

// WithSplitThreshold overrides the computed threshold (total size divided
// by the partition count). Values <= 0 restore the computed threshold.
func WithSplitThreshold(n int64) Option {
	return func(o *options) {
		o.threshold = n
	}
}

// WithCompression sets the compression of the input. Partitions are
// written with the same compression.
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithDeleteOriginal removes the input after a successful, non-skipped split.
func WithDeleteOriginal(enabled bool) Option {
	return func(o *options) {
		o.deleteOriginal = enabled
	}
}

// WithProtectedCategories adds categories whose subtrees must not be cut.
// They are merged with the resolver's set, if any.
func WithProtectedCategories(names ...string) Option {
	return func(o *options) {
		o.protected = append(o.protected, names...)
	}
}

// WithBoundaryResolver sets the resolver producing the protected set.
func WithBoundaryResolver(r *nodetype.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithCategoryReader replaces the reader extracting categories from lines.
//
// If nil is passed, the JSON `jcr:primaryType` reader is used.
func WithCategoryReader(r record.CategoryReader) Option {
	return func(o *options) {
		if r == nil {
			r = record.NewJSONCategoryReader()
		}
		o.categoryReader = r
	}
}

// WithLenientOrdering accepts input whose depth grows by more than one
// level between records instead of failing with ErrUnsortedInput.
// Cut decisions on such input may split protected subtrees.
func WithLenientOrdering() Option {
	return func(o *options) {
		o.lenient = true
	}
}

// WithPreferredPathElements records child names readers of the partitions
// should visit first. They are passed through to Result and the manifest.
func WithPreferredPathElements(names ...string) Option {
	return func(o *options) {
		o.preferred = append(o.preferred, names...)
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &flatsplit.BasicMetricsCollector{}
//	s, _ := flatsplit.New(path, flatsplit.WithMetricsCollector(metrics))
//	s.Split()
//	fmt.Println(metrics.GetStats().Partitions)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// withFileSystem swaps the file system, for fault injection in tests.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

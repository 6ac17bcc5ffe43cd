package flatsplit

import (
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

// Logger is the structured logger of a split pass. The Log* methods keep
// message texts and attribute keys identical across the splitter, the
// publisher and the CLI.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler yields DefaultLogger.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return DefaultLogger()
	}
	return &Logger{Logger: slog.New(handler)}
}

// DefaultLogger writes text records at info level to stderr.
func DefaultLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}
}

// NoopLogger drops everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithSource adds the input file to the logger.
func (l *Logger) WithSource(path string) *Logger {
	return &Logger{Logger: l.With("source", path)}
}

// LogPlan logs the size estimate and the threshold derived from it.
func (l *Logger) LogPlan(total, threshold int64, partitions int) {
	l.Info("split planned",
		"size", humanize.IBytes(uint64(max(total, 0))),
		"threshold", humanize.IBytes(uint64(max(threshold, 0))),
		"partitions", partitions,
	)
}

// LogSkip logs a split that was not necessary.
func (l *Logger) LogSkip(reason SkipReason, total, threshold int64) {
	l.Info("split not necessary, returning original",
		"reason", string(reason),
		"size", humanize.IBytes(uint64(max(total, 0))),
		"threshold_bytes", threshold,
	)
}

// LogSetupFailure logs a work directory that could not be created.
func (l *Logger) LogSetupFailure(dir string, err error) {
	l.Error("failed to create split directory, returning original",
		"dir", dir,
		"error", err,
	)
}

// LogProtected logs the protected categories and the names that could not be resolved.
func (l *Logger) LogProtected(protected []string, unresolved []string) {
	if len(unresolved) > 0 {
		l.Warn("node types not found, skipped",
			"types", unresolved,
		)
	}
	l.Debug("split allowed types",
		"count", len(protected),
		"types", protected,
	)
}

// LogRotation logs a closed partition and the line the next one starts at.
func (l *Logger) LogRotation(closed Partition, line int64) {
	l.Info("split position found",
		"partition", closed.Index,
		"file", closed.Path,
		"size", humanize.IBytes(uint64(closed.Bytes)),
		"records", closed.Records,
		"line", line,
	)
}

// LogSplit logs the outcome of a split.
func (l *Logger) LogSplit(res *Result, err error) {
	if err != nil {
		l.Error("split failed",
			"error", err,
		)
		return
	}
	l.Info("split completed",
		"partitions", len(res.Partitions),
		"lines", res.Lines,
		"original_deleted", res.OriginalDeleted,
	)
}

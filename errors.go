package flatsplit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/flatsplit/internal/ancestry"
	"github.com/hupe1980/flatsplit/internal/estimate"
	"github.com/hupe1980/flatsplit/record"
)

var (
	// ErrInvalidPartitionCount is returned by New when the partition count is not positive.
	ErrInvalidPartitionCount = errors.New("partition count must be positive")

	// ErrUnsortedInput is returned when the input is not in pre-order.
	ErrUnsortedInput = ancestry.ErrDepthJump

	// ErrMalformedRecord is returned for lines that are not `<path>|<json>`.
	ErrMalformedRecord = record.ErrMalformed

	// ErrSizeEstimation is returned when a gzip size trailer cannot be read.
	ErrSizeEstimation = estimate.ErrTrailer
)

// StreamError reports a failure during the streaming pass.
//
// Partitions written before the failure are left on disk.
// The original underlying error can be accessed via errors.Unwrap.
type StreamError struct {
	Op   string // "read", "write", "open" or "close"
	Path string // file the operation was on
	Line int64  // 0-based input line, -1 if not tied to a line
	Err  error
}

func (e *StreamError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("split %s %s (line %d): %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("split %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

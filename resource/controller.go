// Package resource bounds the work a publish run may have in flight:
// concurrent uploads, bytes buffered for upload and upload bandwidth.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxInFlightBytes caps the bytes being uploaded at once.
	// If 0, in-flight bytes are only tracked.
	MaxInFlightBytes int64

	// MaxWorkers is the maximum number of concurrent uploads.
	// If 0, defaults to 1.
	MaxWorkers int64

	// BytesPerSecond caps the upload throughput. If 0, unlimited.
	BytesPerSecond int64
}

// Controller hands out upload slots, byte budget and IO tokens.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	bytesSem  *semaphore.Weighted // nil if unlimited
	bytesUsed atomic.Int64

	workers *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MaxInFlightBytes > 0 {
		c.bytesSem = semaphore.NewWeighted(cfg.MaxInFlightBytes)
	}

	if cfg.BytesPerSecond > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSecond), int(cfg.BytesPerSecond))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// clamp keeps a single reservation within the byte budget so that one
// large file can still proceed alone.
func (c *Controller) clamp(bytes int64) int64 {
	if c.cfg.MaxInFlightBytes > 0 && bytes > c.cfg.MaxInFlightBytes {
		return c.cfg.MaxInFlightBytes
	}
	return bytes
}

// AcquireBytes reserves budget for an upload of the given size, blocking
// until it is available or ctx is canceled. Release with the same size.
func (c *Controller) AcquireBytes(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.bytesSem != nil {
		if err := c.bytesSem.Acquire(ctx, c.clamp(bytes)); err != nil {
			return err
		}
	}

	c.bytesUsed.Add(bytes)
	return nil
}

// TryAcquireBytes reserves budget without blocking.
// Returns false if the budget would be exceeded.
func (c *Controller) TryAcquireBytes(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.bytesSem != nil {
		if !c.bytesSem.TryAcquire(c.clamp(bytes)) {
			return false
		}
	}

	c.bytesUsed.Add(bytes)
	return true
}

// ReleaseBytes returns budget reserved by AcquireBytes.
func (c *Controller) ReleaseBytes(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.bytesSem != nil {
		c.bytesSem.Release(c.clamp(bytes))
	}
	c.bytesUsed.Add(-bytes)
}

// InFlightBytes returns the bytes currently reserved.
func (c *Controller) InFlightBytes() int64 {
	if c == nil {
		return 0
	}
	return c.bytesUsed.Load()
}

// AcquireWorker reserves an upload slot. Blocks if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves an upload slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker releases an upload slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter burst are served in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

package minio

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
)

// object is a read handle on one stored object.
type object struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (o *object) Size() int64 { return o.size }

func (o *object) Close() error { return nil }

// get opens bytes [off, off+n) clamped to the object size.
func (o *object) get(ctx context.Context, off, n int64) (*minio.Object, int64, error) {
	if off >= o.size {
		return nil, 0, io.EOF
	}
	end := min(off+n, o.size)

	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, end-1); err != nil {
		return nil, 0, err
	}
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, opts)
	if err != nil {
		return nil, 0, err
	}
	return obj, end - off, nil
}

func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	obj, want, err := o.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:want])
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	obj, _, err := o.get(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

var (
	errAborted = errors.New("upload aborted")
	errClosed  = errors.New("upload already finished")
)

// upload feeds a background PutObject through a pipe.
type upload struct {
	pw       *io.PipeWriter
	done     chan error
	finished atomic.Bool
}

func (u *upload) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

func (u *upload) Close() error {
	if !u.finished.CompareAndSwap(false, true) {
		return errClosed
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.done
}

// Abort fails the body stream; PutObject returns without creating the object.
func (u *upload) Abort(ctx context.Context) error {
	if !u.finished.CompareAndSwap(false, true) {
		return nil
	}
	_ = u.pw.CloseWithError(errAborted)
	select {
	case <-u.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync is a no-op; data is committed on Close.
func (u *upload) Sync() error { return nil }

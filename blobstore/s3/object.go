package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/flatsplit/blobstore"
)

// object is a read handle on one S3 object. Every read is a ranged GET;
// nothing is buffered between calls.
type object struct {
	client Client
	bucket string
	key    string
	size   int64
}

func headObject(ctx context.Context, client Client, bucket, key string) (*object, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &object{
		client: client,
		bucket: bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func (o *object) Close() error { return nil }

func (o *object) Size() int64 { return o.size }

// get requests bytes [off, off+n) clamped to the object size and returns
// the body together with the number of bytes it will deliver.
func (o *object) get(ctx context.Context, off, n int64) (io.ReadCloser, int64, error) {
	if off >= o.size {
		return nil, 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	end := min(off+n, o.size)

	resp, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end-1)),
	})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, end - off, nil
}

// ReadAt implements blobstore.Blob. A read that reaches the end of the
// object returns io.EOF with the bytes it got.
func (o *object) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	body, want, err := o.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p[:want])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadRange implements blobstore.Blob.
func (o *object) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if length <= 0 {
		return io.NopCloser(eofReader{}), nil
	}
	body, _, err := o.get(ctx, off, length)
	return body, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

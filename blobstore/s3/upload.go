package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadConfig tunes the multipart uploader used by Create.
type UploadConfig struct {
	// PartSize of each multipart chunk. Zero keeps the SDK default.
	PartSize int64
	// Concurrency is the number of parts in flight per partition.
	Concurrency int
	// EnableChecksum requests CRC32C validation from S3.
	EnableChecksum bool
	// LeavePartsOnError keeps the parts of a failed upload on the server.
	LeavePartsOnError bool
}

// DefaultUploadConfig uses 16 MiB parts, five at a time, with checksums.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       16 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func (c UploadConfig) uploader(client Client) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if c.PartSize > 0 {
			u.PartSize = c.PartSize
		}
		if c.Concurrency > 0 {
			u.Concurrency = c.Concurrency
		}
		u.LeavePartsOnError = c.LeavePartsOnError
	})
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// computeCRC32C returns the base64 big-endian CRC32C that S3 expects in
// ChecksumCRC32C.
func computeCRC32C(data []byte) string {
	sum := binary.BigEndian.AppendUint32(nil, crc32.Checksum(data, castagnoli))
	return base64.StdEncoding.EncodeToString(sum)
}

// upload feeds a background manager.Upload through a pipe. The object
// exists once Close returns nil.
type upload struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	err      error
}

func startUpload(ctx context.Context, u *manager.Uploader, in *s3.PutObjectInput) *upload {
	pr, pw := io.Pipe()
	in.Body = pr

	w := &upload{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := u.Upload(ctx, in)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *upload) Write(p []byte) (int, error) {
	w.mu.Lock()
	finished := w.finished
	w.mu.Unlock()

	if finished {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

func (w *upload) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return w.err
	}
	w.finished = true

	if w.err = w.pw.Close(); w.err == nil {
		w.err = <-w.done
	}
	return w.err
}

// Abort fails the body stream so the upload never completes. Unless
// LeavePartsOnError is set the uploader also aborts the multipart upload.
func (w *upload) Abort(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return nil
	}
	w.finished = true
	_ = w.pw.CloseWithError(context.Canceled)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync is a no-op; data is committed on Close.
func (w *upload) Sync() error { return nil }

func (s *Store) putInput(name string) *s3.PutObjectInput {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	}
	if s.upload.EnableChecksum {
		in.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	return in
}

// putObject sends data in a single request with a precomputed checksum.
func (s *Store) putObject(ctx context.Context, name string, data []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if s.upload.EnableChecksum {
		in.ChecksumCRC32C = aws.String(computeCRC32C(data))
	}
	_, err := s.client.PutObject(ctx, in)
	return err
}

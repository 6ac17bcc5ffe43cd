package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/flatsplit/blobstore"
	miniostore "github.com/hupe1980/flatsplit/blobstore/minio"
	s3store "github.com/hupe1980/flatsplit/blobstore/s3"
)

// target is a parsed --publish / --to location.
type target struct {
	scheme   string
	endpoint string // minio only
	bucket   string // s3 and minio
	prefix   string
	dir      string // file only
}

// parseTarget accepts file://dir, s3://bucket/prefix and
// minio://endpoint/bucket/prefix.
func parseTarget(raw string) (target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("invalid target %q: %w", raw, err)
	}

	t := target{scheme: u.Scheme}
	rest := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		t.dir = filepath.FromSlash(u.Host + u.Path)
		if t.dir == "" {
			return target{}, fmt.Errorf("target %q has no directory", raw)
		}
	case "s3":
		t.bucket = u.Host
		t.prefix = rest
	case "minio":
		t.endpoint = u.Host
		t.bucket, t.prefix, _ = strings.Cut(rest, "/")
		if t.endpoint == "" {
			return target{}, fmt.Errorf("target %q has no endpoint", raw)
		}
	default:
		return target{}, fmt.Errorf("unsupported target scheme %q (want file, s3 or minio)", u.Scheme)
	}

	if t.scheme != "file" && t.bucket == "" {
		return target{}, fmt.Errorf("target %q has no bucket", raw)
	}
	return t, nil
}

// open connects to the store. Keys are written below t.prefix by the
// publisher, so the store itself is rooted at the bucket.
func (t target) open(ctx context.Context) (blobstore.BlobStore, error) {
	switch t.scheme {
	case "file":
		return blobstore.NewLocalStore(t.dir), nil
	case "s3":
		var opts []s3store.Option
		if endpoint := os.Getenv("FLATSPLIT_S3_ENDPOINT"); endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(endpoint))
		}
		return s3store.New(ctx, t.bucket, opts...)
	case "minio":
		secure, _ := strconv.ParseBool(os.Getenv("MINIO_SECURE"))
		return miniostore.New(t.endpoint, t.bucket,
			miniostore.WithCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
			miniostore.WithSecure(secure),
		)
	default:
		return nil, fmt.Errorf("unsupported target scheme %q", t.scheme)
	}
}

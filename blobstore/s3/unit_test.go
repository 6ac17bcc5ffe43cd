package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flatsplit/blobstore"
)

const testBucket = "exports"

func keyIs[T any](key string, get func(*T) (*string, *string)) any {
	return mock.MatchedBy(func(in *T) bool {
		bucket, k := get(in)
		return aws.ToString(bucket) == testBucket && aws.ToString(k) == key
	})
}

func headKey(key string) any {
	return keyIs(key, func(in *s3.HeadObjectInput) (*string, *string) { return in.Bucket, in.Key })
}

func getRange(key, rng string) any {
	return mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == key && aws.ToString(in.Range) == rng
	})
}

func newTestStore(prefix string) (*Store, *MockS3Client) {
	client := new(MockS3Client)
	return NewStore(client, testBucket, prefix), client
}

func TestOpen(t *testing.T) {
	store, client := newTestStore("run-7")
	ctx := context.Background()

	client.On("HeadObject", mock.Anything, headKey("run-7/split-9-store-sorted.json")).
		Return(nil, &types.NotFound{}).Once()
	client.On("HeadObject", mock.Anything, headKey("run-7/split-1-store-sorted.json")).
		Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(4096)}, nil).Once()

	_, err := store.Open(ctx, "split-9-store-sorted.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	b, err := store.Open(ctx, "split-1-store-sorted.json")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), b.Size())
	client.AssertExpectations(t)
}

func TestOpen_NoSuchKey(t *testing.T) {
	store, client := newTestStore("")
	client.On("HeadObject", mock.Anything, headKey("MANIFEST.json")).
		Return(nil, &types.NoSuchKey{}).Once()

	_, err := store.Open(context.Background(), "MANIFEST.json")
	assert.True(t, blobstore.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	store, client := newTestStore("run-7")
	client.On("DeleteObject", mock.Anything, keyIs("run-7/split-2-store-sorted.json",
		func(in *s3.DeleteObjectInput) (*string, *string) { return in.Bucket, in.Key })).
		Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Delete(context.Background(), "split-2-store-sorted.json"))
	client.AssertExpectations(t)
}

func TestList(t *testing.T) {
	store, client := newTestStore("exports/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && aws.ToString(in.Prefix) == "exports/run-7"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
		Contents: []types.Object{
			{Key: aws.String("exports/run-7/split-2-store-sorted.json")},
			{Key: aws.String("exports/run-7/MANIFEST.json")},
		},
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("exports/run-7/split-1-store-sorted.json")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "run-7")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run-7/MANIFEST.json",
		"run-7/split-1-store-sorted.json",
		"run-7/split-2-store-sorted.json",
	}, names)
	client.AssertExpectations(t)
}

func TestObjectReads(t *testing.T) {
	client := new(MockS3Client)
	obj := &object{client: client, bucket: testBucket, key: "split-1", size: 12}
	ctx := context.Background()

	client.On("GetObject", mock.Anything, getRange("split-1", "bytes=0-4")).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("/|{}\n"))}, nil).Once()
	for range 2 {
		client.On("GetObject", mock.Anything, getRange("split-1", "bytes=5-11")).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("/a|{}\n\n"))}, nil).Once()
	}

	buf := make([]byte, 5)
	n, err := obj.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "/|{}\n", string(buf[:n]))

	// Reads past the end are clamped and report io.EOF.
	buf = make([]byte, 10)
	n, err = obj.ReadAt(ctx, buf, 5)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "/a|{}\n\n", string(buf[:n]))

	rc, err := obj.ReadRange(ctx, 5, 100)
	require.NoError(t, err)
	tail, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "/a|{}\n\n", string(tail))

	_, err = obj.ReadAt(ctx, buf, 12)
	assert.ErrorIs(t, err, io.EOF)
	client.AssertExpectations(t)
}

func TestCreate(t *testing.T) {
	store, client := newTestStore("run-7")

	var body []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "run-7/split-1-store-sorted.json.gz" &&
			in.ChecksumAlgorithm == types.ChecksumAlgorithmCrc32c
	})).Run(func(args mock.Arguments) {
		body, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(context.Background(), "split-1-store-sorted.json.gz")
	require.NoError(t, err)
	_, err = w.Write([]byte("compressed partition"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, "compressed partition", string(body))
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	client.AssertExpectations(t)
}

func TestCreate_Abort(t *testing.T) {
	store, client := newTestStore("run-7")

	w, err := store.Create(context.Background(), "split-2-store-sorted.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("half a partition"))
	require.NoError(t, err)

	require.NoError(t, blobstore.Abort(context.Background(), w))
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "CreateMultipartUpload", mock.Anything, mock.Anything)
}

func TestPut(t *testing.T) {
	manifest := []byte(`{"version":1}`)

	t.Run("Checksum", func(t *testing.T) {
		store, client := newTestStore("run-7")
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Key) == "run-7/MANIFEST.json" &&
				aws.ToInt64(in.ContentLength) == int64(len(manifest)) &&
				aws.ToString(in.ChecksumCRC32C) == computeCRC32C(manifest)
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		require.NoError(t, store.Put(context.Background(), "MANIFEST.json", manifest))
		client.AssertExpectations(t)
	})

	t.Run("NoChecksum", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewStore(client, testBucket, "", WithUploadConfig(UploadConfig{}))
		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return in.ChecksumCRC32C == nil
		})).Return(&s3.PutObjectOutput{}, nil).Once()

		require.NoError(t, store.Put(context.Background(), "MANIFEST.json", manifest))
		client.AssertExpectations(t)
	})
}

func TestComputeCRC32C(t *testing.T) {
	// CRC32C("123456789") = 0xE3069283
	assert.Equal(t, "4waSgw==", computeCRC32C([]byte("123456789")))
}

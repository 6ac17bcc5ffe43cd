// Package blobstore provides the storage abstraction partitions and
// manifests are published to.
//
// BlobStore is the interface for reading and writing data blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with multipart streaming uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)             // Open for reading
//	    Create(ctx, name) (WritableBlob, error)   // Create for writing
//	    Put(ctx, name, data) error                // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Writable blobs that can discard a partial upload should implement
// Aborter; publishers abort instead of closing after a failed copy.
package blobstore

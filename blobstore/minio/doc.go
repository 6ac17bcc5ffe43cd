// Package minio stores published partitions on MinIO or another
// S3-compatible server through the MinIO client, without the AWS SDK.
//
//	store, err := minio.New("localhost:9000", "exports",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := publish.New(store).Publish(ctx, res, "run-42")
//
// Streamed uploads use DefaultPartSize chunks. Partition blobs get a
// content type matching their compression.
package minio

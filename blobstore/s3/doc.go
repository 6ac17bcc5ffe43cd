// Package s3 publishes partitions to Amazon S3 through the AWS SDK v2.
//
//	store, err := s3.New(ctx, "exports",
//	    s3.WithPrefix("flatsplit/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil {
//	    return err
//	}
//	report, err := publish.New(store).Publish(ctx, res, "run-42")
//
// Partitions stream through the multipart upload manager, optionally with
// CRC32C checksums, and become visible only when Close succeeds. Abort fails
// the body stream so the upload never completes. Open issues a HEAD request
// and reads use ranged GETs.
package s3

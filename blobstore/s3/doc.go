// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	bs, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("analysis/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	dec := store.NewDecomposition(bs, "mnist_", "inputs")
//
// Reads use ranged GETs, writes go through the multipart uploader and
// small blobs are written with a CRC32C checksum.
package s3

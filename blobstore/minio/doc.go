// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS,
// Garage) and is the usual backend for decompositions that are shared
// between machines.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	bs := minioblob.NewStore(client, "analysis", "mnist/")
//	dec := store.NewDecomposition(bs, "mnist_", "inputs")
package minio

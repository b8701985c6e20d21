// Package lja analyzes layered computations through their per-layer
// factor decompositions.
//
// Every layer is decomposed into read vectors (consumed going forward) and
// write vectors (produced going forward). lja clusters the write vectors of
// every layer and reconstructs read vectors as features of the input layer
// by recursive, similarity-weighted combination.
//
// # Quick Start
//
//	ctx := context.Background()
//	a := lja.New(blobstore.NewLocalStore("./results"), "mnist")
//
//	// Cluster the write vectors of every layer.
//	table, _ := a.Cluster(ctx, "left")
//
//	// Reconstruct read vector 3 of layer 2 for sample 17.
//	c, _ := a.Constructor(ctx, "left", construct.BySample, construct.Sample)
//	feature, _ := c.Construct(ctx, 2, 3, 17)
//
// # Storage
//
// All inputs and results live on a blobstore.BlobStore:
//
//	decompositions/<ns><side>/Layer<L>/u.npy         write factors
//	decompositions/<ns><side>/Layer<L>/vh.npy        read factors
//	decompositions/<ns><side>/Layer<L>/clusters.lja  cluster artifact
//	transformations/<ns>labels.npy                   class labels
//	features/<ns><side>/Layer<L>/Vector<f>/...       constructed features
//	plots/<ns><side>/...                             renderings
//
// Local directories, MinIO and S3 are supported (see blobstore/minio and
// blobstore/s3). WithCache adds an in-memory read cache in front of any
// store.
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics are collected through a
// MetricsCollector; metrics.NewPrometheus exports them to Prometheus.
package lja

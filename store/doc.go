// Package store persists decompositions, cluster artifacts and constructed
// features on a blobstore.BlobStore.
//
// Layout under the store root, for a namespace ns and a side:
//
//	decompositions/<ns><side>/Layer<L>/u.npy          write factors (samples, dim, rank)
//	decompositions/<ns><side>/Layer<L>/vh.npy         read factors (rows, dim+1)
//	decompositions/<ns><side>/Layer<L>/clusters.lja   cluster artifact envelope
//	transformations/<ns>labels.npy                    class labels
//	features/<ns><side>/Layer<L>/Vector<f>/by_<target>/granularity_<g>/feature_<f>_<target>_<t>.npy
//
// Arrays use the NumPy .npy format so that they can be exchanged with the
// decomposition tooling. Cluster artifacts are wrapped in a checksummed
// envelope that records codec and compression.
package store

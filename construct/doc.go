// Package construct reconstructs read vectors as features of the input
// layer.
//
// A feature of read vector f at layer L for a target is built from the
// features of layer L-1: each candidate write vector of layer L-1 is
// weighted by its similarity to the read vector, and the corresponding
// features are summed. A Strategy decides which write vectors are the
// candidates (the sample's own, or cluster centroids of its profile) and
// which target the recursion continues with. Constructed features are
// memoized in a Cache.
package construct

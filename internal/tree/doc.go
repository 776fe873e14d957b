// Package tree migrates decision trees from the old split encoding to the
// new one.
//
// An old split is a pair of fully specified branches, each naming a
// feature, an old predicate and its children. A new split is one
// predicate (the condition for the left branch) with an implicit else.
// Migration is lossless only when both branches test the same feature with
// complementary predicates; anything else is rejected.
//
// The node shape is decided once by Parse: a JSON array with at least one
// object carrying a "feature" member is a split, and each of its elements
// must then be a full branch. Everything else is an opaque leaf kept as its
// exact (compacted) JSON text. Branch predicates are decoded by Migrate.
//
// Migration never mutates its input and returns no partial tree on failure.
package tree

// Package predicate implements the algebra over comparison predicates used
// to migrate decision-tree splits from the old encoding to the new one.
//
// Old predicates (eq, lt, not, or, exists) are decoded into the sealed Old
// interface. New predicates are a single operator from isEq, notEq, lt,
// ltEq, gt, gtEq paired with a comparison value, so the "exactly one key"
// invariant holds by construction.
//
// The algebra is pure:
//   - Negate returns the complement via a fixed involutive table
//   - Union returns the least representable predicate covering both inputs,
//     or fails when the new vocabulary cannot express it
//   - IsComplement compares operators only (values are not compared)
//   - Translate folds not/or down to a single new predicate
//
// Failures are *Error values carrying an ErrorCode.
package predicate

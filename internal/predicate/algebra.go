package predicate

import (
	"github.com/roach88/treemig/internal/ir"
)

// negations is the involutive complement table. Total over the six
// operators: every operator has exactly one negation and negating twice
// returns the original operator.
var negations = map[Op]Op{
	OpIsEq:  OpNotEq,
	OpNotEq: OpIsEq,
	OpLt:    OpGtEq,
	OpGtEq:  OpLt,
	OpLtEq:  OpGt,
	OpGt:    OpLtEq,
}

// opPair keys the union table.
type opPair struct {
	lhs, rhs Op
}

// unions maps operator pairs (with equal values) to the least operator
// covering both. Pairs absent from the table have no closed form.
var unions = map[opPair]Op{
	// same-direction absorption
	{OpLt, OpLt}:       OpLt,
	{OpGt, OpGt}:       OpGt,
	{OpIsEq, OpIsEq}:   OpIsEq,
	{OpNotEq, OpNotEq}: OpNotEq,

	// strict/non-strict widening
	{OpLt, OpLtEq}: OpLtEq,
	{OpLtEq, OpLt}: OpLtEq,
	{OpGt, OpGtEq}: OpGtEq,
	{OpGtEq, OpGt}: OpGtEq,

	// open ray plus its boundary point
	{OpLt, OpIsEq}: OpLtEq,
	{OpIsEq, OpLt}: OpLtEq,
	{OpGt, OpIsEq}: OpGtEq,
	{OpIsEq, OpGt}: OpGtEq,
}

// TranslateLeaf converts a non-composite old predicate:
// eq becomes isEq and lt stays lt, with the value unchanged.
func TranslateLeaf(p Old) (New, error) {
	switch v := p.(type) {
	case Eq:
		return IsEq(v.Value), nil
	case Lt:
		return LessThan(v.Value), nil
	default:
		return New{}, NewUnsupportedError(p.Tag())
	}
}

// Negate returns the logical complement of p.
// The operator must be valid; the value is unchanged.
func Negate(p New) New {
	return New{Op: negations[p.Op], Value: p.Value}
}

// Union returns the least new-form predicate that is true whenever lhs or
// rhs is true. Both values must be equal and the operator pair must have a
// closed form; otherwise it fails with ErrCodeIncompatiblePredicates.
func Union(lhs, rhs New) (New, error) {
	op, ok := unions[opPair{lhs.Op, rhs.Op}]
	if !ok || !ir.Equal(lhs.Value, rhs.Value) {
		return New{}, NewIncompatibleError(lhs, rhs)
	}
	return New{Op: op, Value: lhs.Value}, nil
}

// IsComplement reports whether rhs has the operator of Negate(lhs).
// Values are not compared.
func IsComplement(lhs, rhs New) bool {
	return negations[lhs.Op] == rhs.Op
}

// Translate converts any old predicate to new form.
//
// eq and lt delegate to TranslateLeaf; not translates its operand and
// negates it; or translates every operand and left-folds them through
// Union in sequence order, so the first non-combinable pair fails.
func Translate(p Old) (New, error) {
	switch v := p.(type) {
	case Eq, Lt:
		return TranslateLeaf(v)
	case Not:
		inner, err := Translate(v.Operand)
		if err != nil {
			return New{}, err
		}
		return Negate(inner), nil
	case Or:
		if len(v.Operands) == 0 {
			return New{}, &Error{
				Code:    ErrCodeIncompatiblePredicates,
				Message: MsgComplexPredicate,
				Details: map[string]string{"or": "no operands"},
			}
		}
		acc, err := Translate(v.Operands[0])
		if err != nil {
			return New{}, err
		}
		for _, operand := range v.Operands[1:] {
			next, err := Translate(operand)
			if err != nil {
				return New{}, err
			}
			if acc, err = Union(acc, next); err != nil {
				return New{}, err
			}
		}
		return acc, nil
	default:
		return New{}, NewUnsupportedError(p.Tag())
	}
}

package predicate

// Op is a new-form comparison operator.
type Op string

// New-form operators.
const (
	OpIsEq  Op = "isEq"
	OpNotEq Op = "notEq"
	OpLt    Op = "lt"
	OpLtEq  Op = "ltEq"
	OpGt    Op = "gt"
	OpGtEq  Op = "gtEq"
)

// Ops lists every new-form operator.
var Ops = []Op{OpIsEq, OpNotEq, OpLt, OpLtEq, OpGt, OpGtEq}

// Valid reports whether op is one of the six new-form operators.
func (op Op) Valid() bool {
	_, ok := negations[op]
	return ok
}

func (op Op) String() string {
	return string(op)
}

// Old-form operator tags.
const (
	TagEq     = "eq"
	TagLt     = "lt"
	TagNot    = "not"
	TagOr     = "or"
	TagExists = "exists"
)

package predicate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/treemig/internal/ir"
)

// Old is a sealed interface over old-form predicates.
// Only Eq, Lt, Not, Or, Exists and Unknown implement it.
type Old interface {
	oldPredicate() // Sealed
	// Tag returns the operator tag as it appears in the encoded form.
	Tag() string
}

// Eq is the old equality test {"eq": v}.
type Eq struct {
	Value ir.IRValue
}

// Lt is the old strict less-than test {"lt": v}.
type Lt struct {
	Value ir.IRValue
}

// Not wraps one old predicate {"not": p}.
type Not struct {
	Operand Old
}

// Or is the ordered union {"or": [p1, p2, ...]}.
type Or struct {
	Operands []Old
}

// Exists is the presence test {"exists": v}. It has no new-form equivalent.
type Exists struct {
	Value ir.IRValue
}

// Unknown holds any operator tag outside the old vocabulary.
type Unknown struct {
	Name  string
	Value ir.IRValue
}

func (Eq) oldPredicate()      {}
func (Lt) oldPredicate()      {}
func (Not) oldPredicate()     {}
func (Or) oldPredicate()      {}
func (Exists) oldPredicate()  {}
func (Unknown) oldPredicate() {}

func (Eq) Tag() string        { return TagEq }
func (Lt) Tag() string        { return TagLt }
func (Not) Tag() string       { return TagNot }
func (Or) Tag() string        { return TagOr }
func (Exists) Tag() string    { return TagExists }
func (u Unknown) Tag() string { return u.Name }

// New is a new-form predicate: one operator and its comparison value.
type New struct {
	Op    Op
	Value ir.IRValue
}

// IsEq builds {"isEq": v}.
func IsEq(v ir.IRValue) New { return New{Op: OpIsEq, Value: v} }

// NotEq builds {"notEq": v}.
func NotEq(v ir.IRValue) New { return New{Op: OpNotEq, Value: v} }

// LessThan builds {"lt": v}.
func LessThan(v ir.IRValue) New { return New{Op: OpLt, Value: v} }

// LessEq builds {"ltEq": v}.
func LessEq(v ir.IRValue) New { return New{Op: OpLtEq, Value: v} }

// GreaterThan builds {"gt": v}.
func GreaterThan(v ir.IRValue) New { return New{Op: OpGt, Value: v} }

// GreaterEq builds {"gtEq": v}.
func GreaterEq(v ir.IRValue) New { return New{Op: OpGtEq, Value: v} }

// Equal reports whether p and other have the same operator and an equal value.
func (p New) Equal(other New) bool {
	return p.Op == other.Op && ir.Equal(p.Value, other.Value)
}

// MarshalJSON encodes p as a single-key object.
func (p New) MarshalJSON() ([]byte, error) {
	if !p.Op.Valid() {
		return nil, fmt.Errorf("invalid operator %q", string(p.Op))
	}
	if p.Value == nil {
		return nil, fmt.Errorf("operator %q has no value", string(p.Op))
	}
	val, err := ir.MarshalIRValue(p.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s value: %w", p.Op, err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"`)
	buf.WriteString(string(p.Op))
	buf.WriteString(`":`)
	buf.Write(val)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a single-key new-form predicate.
func (p *New) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeNew(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

func (p New) String() string {
	data, err := p.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("{%s: %v}", p.Op, p.Value)
	}
	return string(data)
}

// FormatOld renders an old predicate in its encoded form for messages.
func FormatOld(p Old) string {
	switch v := p.(type) {
	case Eq:
		return fmt.Sprintf(`{"eq":%s}`, ir.FormatIRValue(v.Value))
	case Lt:
		return fmt.Sprintf(`{"lt":%s}`, ir.FormatIRValue(v.Value))
	case Exists:
		return fmt.Sprintf(`{"exists":%s}`, ir.FormatIRValue(v.Value))
	case Unknown:
		data, _ := json.Marshal(v.Name)
		return fmt.Sprintf(`{%s:%s}`, data, ir.FormatIRValue(v.Value))
	case Not:
		return fmt.Sprintf(`{"not":%s}`, FormatOld(v.Operand))
	case Or:
		parts := make([]string, len(v.Operands))
		for i, op := range v.Operands {
			parts[i] = FormatOld(op)
		}
		return fmt.Sprintf(`{"or":[%s]}`, strings.Join(parts, ","))
	default:
		return fmt.Sprintf("%v", p)
	}
}

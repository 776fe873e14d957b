package predicate

import (
	"github.com/roach88/treemig/internal/ir"
)

// DecodeOld decodes an old-form predicate from JSON.
func DecodeOld(data []byte) (Old, error) {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, NewMalformedError("predicate is not valid JSON: %v", err)
	}
	return ParseOld(v)
}

// ParseOld converts a decoded value into an old-form predicate.
//
// The value must be an object with exactly one key. Unrecognized tags decode
// to Unknown so that Translate reports them; shape errors (not an object,
// several keys, a "not" operand that is not an object, an "or" operand that
// is not an array) fail here with ErrCodeUnsupportedPredicate.
func ParseOld(v ir.IRValue) (Old, error) {
	tag, val, err := singleKey(v)
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagEq:
		return Eq{Value: val}, nil
	case TagLt:
		return Lt{Value: val}, nil
	case TagExists:
		return Exists{Value: val}, nil
	case TagNot:
		operand, err := ParseOld(val)
		if err != nil {
			return nil, err
		}
		return Not{Operand: operand}, nil
	case TagOr:
		arr, ok := val.(ir.IRArray)
		if !ok {
			return nil, NewMalformedError(`"or" operand must be an array, got %s`, ir.FormatIRValue(val))
		}
		operands := make([]Old, len(arr))
		for i, elem := range arr {
			operand, err := ParseOld(elem)
			if err != nil {
				return nil, err
			}
			operands[i] = operand
		}
		return Or{Operands: operands}, nil
	default:
		return Unknown{Name: tag, Value: val}, nil
	}
}

// DecodeNew decodes a new-form predicate from JSON.
func DecodeNew(data []byte) (New, error) {
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return New{}, NewMalformedError("predicate is not valid JSON: %v", err)
	}
	return ParseNew(v)
}

// ParseNew converts a decoded value into a new-form predicate.
func ParseNew(v ir.IRValue) (New, error) {
	tag, val, err := singleKey(v)
	if err != nil {
		return New{}, err
	}
	op := Op(tag)
	if !op.Valid() {
		return New{}, NewUnsupportedError(tag)
	}
	return New{Op: op, Value: val}, nil
}

// singleKey extracts the only key of a predicate object.
func singleKey(v ir.IRValue) (string, ir.IRValue, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return "", nil, NewMalformedError("predicate must be an object, got %s", ir.FormatIRValue(v))
	}
	if len(obj) != 1 {
		return "", nil, NewMalformedError("predicate must have exactly one operator, got %d", len(obj))
	}
	key := obj.SortedKeys()[0]
	return key, obj[key], nil
}

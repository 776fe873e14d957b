package tree

import (
	"bytes"
	"fmt"

	"github.com/roach88/treemig/internal/ir"
)

// Marshal encodes a new-form node as compact JSON.
// Leaves are written verbatim; splits as {"key","predicate","left","right"}.
func Marshal(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case Leaf:
		if len(v.Raw) == 0 {
			return fmt.Errorf("leaf has no payload")
		}
		buf.Write(v.Raw)
		return nil
	case Split:
		key, err := ir.MarshalIRValue(v.Key)
		if err != nil {
			return fmt.Errorf("marshal key: %w", err)
		}
		pred, err := v.Predicate.MarshalJSON()
		if err != nil {
			return fmt.Errorf("marshal predicate: %w", err)
		}

		buf.WriteString(`{"key":`)
		buf.Write(key)
		buf.WriteString(`,"predicate":`)
		buf.Write(pred)
		buf.WriteString(`,"left":`)
		if err := writeNode(buf, v.Left); err != nil {
			return fmt.Errorf("left: %w", err)
		}
		buf.WriteString(`,"right":`)
		if err := writeNode(buf, v.Right); err != nil {
			return fmt.Errorf("right: %w", err)
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unknown node type: %T", n)
	}
}

// MarshalJSON implements json.Marshaler for Leaf.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return Marshal(l)
}

// MarshalJSON implements json.Marshaler for Split.
func (s Split) MarshalJSON() ([]byte, error) {
	return Marshal(s)
}

// Walk calls fn for every node of n in pre-order, stopping at the first error.
func Walk(n Node, fn func(path string, n Node) error) error {
	return walk("", n, fn)
}

func walk(path string, n Node, fn func(string, Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	s, ok := n.(Split)
	if !ok {
		return nil
	}
	if err := walk(joinPath(path, "left"), s.Left, fn); err != nil {
		return err
	}
	return walk(joinPath(path, "right"), s.Right, fn)
}

func joinPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return path + "." + segment
}

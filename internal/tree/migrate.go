package tree

import (
	"errors"
	"strconv"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
)

// Structural failure reasons.
const (
	MsgNotBinary        = "split node is not binary"
	MsgDifferentFeature = "predicates use different feature"
	MsgNotUnifiable     = "predicates are not unifiable"
	MsgTooDeep          = "tree exceeds maximum depth"
	MsgInvalidJSON      = "tree is not valid JSON"
)

// DefaultMaxDepth bounds split nesting for Parse and the default Migrator.
const DefaultMaxDepth = 1000

// Migrator converts old-form trees to new form.
// A Migrator holds no mutable state and is safe for concurrent use.
type Migrator struct {
	strictComplement bool
	maxDepth         int
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithStrictComplement additionally requires both branch predicates to carry
// equal comparison values. Off by default: the operator-only check accepts
// e.g. lt 3 against gtEq 7.
func WithStrictComplement(strict bool) Option {
	return func(m *Migrator) {
		m.strictComplement = strict
	}
}

// WithMaxDepth bounds split nesting. Zero or less disables the bound.
func WithMaxDepth(depth int) Option {
	return func(m *Migrator) {
		m.maxDepth = depth
	}
}

// NewMigrator creates a Migrator with the given options.
func NewMigrator(opts ...Option) *Migrator {
	m := &Migrator{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMigrator = NewMigrator()

// Migrate converts n with the default Migrator.
func Migrate(n OldNode) (Node, error) {
	return defaultMigrator.Migrate(n)
}

// MigrateJSON parses, migrates and encodes a tree with the default Migrator.
func MigrateJSON(data []byte) ([]byte, error) {
	return defaultMigrator.MigrateJSON(data)
}

// Migrate converts n to new form. Leaves are returned unchanged. Every
// failure is a *predicate.Error; no partial tree is returned.
func (m *Migrator) Migrate(n OldNode) (Node, error) {
	return m.migrate(n, 0)
}

// Parse decodes an old-form tree under the Migrator's depth bound.
func (m *Migrator) Parse(data []byte) (OldNode, error) {
	return ParseDepth(data, m.maxDepth)
}

// MigrateJSON parses data, migrates it and returns the compact new-form JSON.
func (m *Migrator) MigrateJSON(data []byte) ([]byte, error) {
	old, err := m.Parse(data)
	if err != nil {
		return nil, err
	}
	migrated, err := m.Migrate(old)
	if err != nil {
		return nil, err
	}
	return Marshal(migrated)
}

func (m *Migrator) migrate(n OldNode, depth int) (Node, error) {
	switch v := n.(type) {
	case OldLeaf:
		return Leaf(v), nil
	case OldSplit:
		return m.migrateSplit(v, depth)
	default:
		return nil, predicate.NewStructuralError("unknown node type")
	}
}

func (m *Migrator) migrateSplit(s OldSplit, depth int) (Node, error) {
	if m.maxDepth > 0 && depth >= m.maxDepth {
		return nil, depthError(m.maxDepth)
	}
	if len(s.Branches) != 2 {
		err := predicate.NewStructuralError(MsgNotBinary)
		err.Details = map[string]string{"branches": strconv.Itoa(len(s.Branches))}
		return nil, err
	}
	left, right := s.Branches[0], s.Branches[1]

	if !ir.Equal(left.Feature, right.Feature) {
		err := predicate.NewStructuralError(MsgDifferentFeature)
		err.Details = map[string]string{
			"left":  ir.FormatIRValue(left.Feature),
			"right": ir.FormatIRValue(right.Feature),
		}
		return nil, err
	}

	pred, err := translateBranch(left)
	if err != nil {
		return nil, atSegment(atSegment(err, "predicate"), "left")
	}

	rightPred, err := translateBranch(right)
	if err != nil {
		return nil, atSegment(atSegment(err, "predicate"), "right")
	}
	if !predicate.IsComplement(pred, rightPred) {
		return nil, notUnifiable(pred, rightPred, "operators are not complements")
	}
	if m.strictComplement && !ir.Equal(pred.Value, rightPred.Value) {
		return nil, notUnifiable(pred, rightPred, "comparison values differ")
	}

	leftNode, err := m.migrate(left.Children, depth+1)
	if err != nil {
		return nil, atSegment(err, "left")
	}
	rightNode, err := m.migrate(right.Children, depth+1)
	if err != nil {
		return nil, atSegment(err, "right")
	}

	return Split{
		Key:       left.Feature,
		Predicate: pred,
		Left:      leftNode,
		Right:     rightNode,
	}, nil
}

// translateBranch decodes and translates a branch predicate.
func translateBranch(b Branch) (predicate.New, error) {
	old, err := predicate.DecodeOld(b.Predicate)
	if err != nil {
		return predicate.New{}, err
	}
	return predicate.Translate(old)
}

func notUnifiable(lhs, rhs predicate.New, reason string) *predicate.Error {
	err := predicate.NewStructuralError(MsgNotUnifiable)
	err.Details = map[string]string{
		"left":   lhs.String(),
		"right":  rhs.String(),
		"reason": reason,
	}
	return err
}

func depthError(maxDepth int) *predicate.Error {
	err := predicate.NewStructuralError(MsgTooDeep)
	err.Details = map[string]string{"max_depth": strconv.Itoa(maxDepth)}
	return err
}

// atSegment prefixes the error path with segment. Errors that are not
// *predicate.Error are returned unchanged.
func atSegment(err error, segment string) error {
	var pe *predicate.Error
	if errors.As(err, &pe) {
		return pe.At(segment)
	}
	return err
}

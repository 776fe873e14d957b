package tree

import (
	"encoding/json"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
)

// OldNode is a sealed interface over old-form nodes: OldLeaf or OldSplit.
type OldNode interface {
	oldNode() // Sealed
}

// OldLeaf is an opaque terminal payload.
type OldLeaf struct {
	// Raw is the compacted JSON text of the payload.
	Raw json.RawMessage
}

// OldSplit is an old-form split: one fully specified entry per branch.
// A well-formed split has exactly two branches; Migrate enforces that.
type OldSplit struct {
	Branches []Branch
}

// Branch is one side of an old split. Predicate holds the old predicate's
// JSON text; Migrate decodes it.
type Branch struct {
	Feature   ir.IRValue
	Predicate json.RawMessage
	Children  OldNode
}

func (OldLeaf) oldNode()  {}
func (OldSplit) oldNode() {}

// Node is a sealed interface over new-form nodes: Leaf or Split.
type Node interface {
	node() // Sealed
}

// Leaf is an opaque terminal payload, passed through verbatim.
type Leaf struct {
	Raw json.RawMessage
}

// Split is a new-form split. Predicate is the condition for Left; Right is
// taken when Predicate does not hold.
type Split struct {
	Key       ir.IRValue
	Predicate predicate.New
	Left      Node
	Right     Node
}

func (Leaf) node()  {}
func (Split) node() {}

package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
)

// Old-form branch members.
const (
	fieldFeature   = "feature"
	fieldPredicate = "predicate"
	fieldChildren  = "children"
)

// MsgBranchNotObject is the structural reason for a non-object element in a
// split array.
const MsgBranchNotObject = "split branch is not an object"

// Parse decodes an old-form tree, limited to DefaultMaxDepth levels.
func Parse(data []byte) (OldNode, error) {
	return ParseDepth(data, DefaultMaxDepth)
}

// ParseDepth decodes an old-form tree, failing with a structural error when
// splits nest deeper than maxDepth. A maxDepth of zero or less means no limit.
//
// Parsing settles tree shape only. Branch predicates are kept as raw JSON and
// decoded by Migrate, after the branch count and feature checks.
func ParseDepth(data []byte, maxDepth int) (OldNode, error) {
	if !json.Valid(data) {
		return nil, predicate.NewStructuralError(MsgInvalidJSON)
	}
	return parseNode(data, 0, maxDepth)
}

func parseNode(data []byte, depth, maxDepth int) (OldNode, error) {
	branches, ok := splitBranches(data)
	if !ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return nil, predicate.NewStructuralError(MsgInvalidJSON)
		}
		return OldLeaf{Raw: buf.Bytes()}, nil
	}

	if maxDepth > 0 && depth >= maxDepth {
		return nil, depthError(maxDepth)
	}

	split := OldSplit{Branches: make([]Branch, len(branches))}
	for i, fields := range branches {
		b, err := parseBranch(fields, depth, maxDepth)
		if err != nil {
			return nil, atSegment(err, branchSegment(i, len(branches)))
		}
		split.Branches[i] = b
	}
	return split, nil
}

// splitBranches reports whether data is a split array and returns each
// element's members, nil for elements that are not objects. An array is a
// split as soon as one element is an object carrying a "feature" member;
// parseBranch then rejects every element that is not a full branch.
func splitBranches(data []byte) ([]map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil || len(elems) == 0 {
		return nil, false
	}

	branches := make([]map[string]json.RawMessage, len(elems))
	split := false
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			continue
		}
		if _, ok := fields[fieldFeature]; ok {
			split = true
		}
		branches[i] = fields
	}
	return branches, split
}

func parseBranch(fields map[string]json.RawMessage, depth, maxDepth int) (Branch, error) {
	if fields == nil {
		return Branch{}, predicate.NewStructuralError(MsgBranchNotObject)
	}
	for _, name := range []string{fieldFeature, fieldPredicate, fieldChildren} {
		if _, ok := fields[name]; !ok {
			return Branch{}, predicate.NewStructuralError(fmt.Sprintf("split branch is missing %q", name))
		}
	}

	feature, err := ir.UnmarshalIRValue(fields[fieldFeature])
	if err != nil {
		return Branch{}, predicate.NewStructuralError(MsgInvalidJSON)
	}

	children, err := parseNode(fields[fieldChildren], depth+1, maxDepth)
	if err != nil {
		return Branch{}, err
	}

	return Branch{Feature: feature, Predicate: fields[fieldPredicate], Children: children}, nil
}

// branchSegment names branch i of n in error paths: "left"/"right" for
// binary splits, "branch[i]" otherwise.
func branchSegment(i, n int) string {
	if n == 2 {
		if i == 0 {
			return "left"
		}
		return "right"
	}
	return "branch[" + strconv.Itoa(i) + "]"
}

// Package schema verifies migrated trees against the CUE definition of a
// new-form split record.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/treemig/internal/tree"
)

//go:embed split.cue
var splitSchema string

// VerificationError reports a split record that does not satisfy #Split.
type VerificationError struct {
	// Path locates the split from the tree root ("" for the root).
	Path string
	// Messages holds one entry per CUE error.
	Messages []string
}

func (e *VerificationError) Error() string {
	where := e.Path
	if where == "" {
		where = "root"
	}
	return fmt.Sprintf("split at %s violates schema: %s", where, strings.Join(e.Messages, "; "))
}

// Verifier checks new-form trees. A cue.Context is not safe for concurrent
// use, so Verify serializes callers.
type Verifier struct {
	mu    sync.Mutex
	ctx   *cue.Context
	split cue.Value
}

// NewVerifier compiles the embedded schema.
func NewVerifier() (*Verifier, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(splitSchema, cue.Filename("split.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	split := schema.LookupPath(cue.ParsePath("#Split"))
	if err := split.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Split: %w", err)
	}

	return &Verifier{ctx: ctx, split: split}, nil
}

// Verify checks every split record of n. Leaves are opaque and always pass.
func (v *Verifier) Verify(n tree.Node) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return tree.Walk(n, func(path string, node tree.Node) error {
		s, ok := node.(tree.Split)
		if !ok {
			return nil
		}
		return v.verifySplit(path, s)
	})
}

func (v *Verifier) verifySplit(path string, s tree.Split) error {
	record, err := shallowRecord(s)
	if err != nil {
		return &VerificationError{Path: path, Messages: []string{err.Error()}}
	}
	return v.check(path, record)
}

// recordFilename names extracted records in CUE positions. Tree paths are
// reported only through VerificationError.Path.
const recordFilename = "record.json"

// check validates one encoded split record; its children are not descended
// into. Callers hold v.mu.
func (v *Verifier) check(path string, record []byte) error {
	expr, err := cuejson.Extract(recordFilename, record)
	if err != nil {
		return &VerificationError{Path: path, Messages: []string{err.Error()}}
	}

	value := v.ctx.BuildExpr(expr)
	unified := v.split.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &VerificationError{Path: path, Messages: errorMessages(err)}
	}
	return nil
}

// shallowRecord encodes a split with null placeholders for its children.
func shallowRecord(s tree.Split) ([]byte, error) {
	return tree.Marshal(tree.Split{
		Key:       s.Key,
		Predicate: s.Predicate,
		Left:      tree.Leaf{Raw: []byte("null")},
		Right:     tree.Leaf{Raw: []byte("null")},
	})
}

func errorMessages(err error) []string {
	var msgs []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if p := e.Path(); len(p) > 0 {
			msg = strings.Join(p, ".") + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

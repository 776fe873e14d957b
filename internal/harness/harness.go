package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
	"github.com/roach88/treemig/internal/schema"
	"github.com/roach88/treemig/internal/tree"
)

// Harness runs cases. The verifier is compiled on first use.
type Harness struct {
	verifier *schema.Verifier
}

// Run executes every case of suite in order.
func Run(suite *Suite) *Result {
	h := &Harness{}
	result := NewResult(suite.Name)
	for _, c := range suite.Cases {
		result.Add(h.RunCase(c, effective(&suite.Options, c.Options)))
	}
	return result
}

// RunCase executes one case with the given options.
func (h *Harness) RunCase(c Case, opts Options) CaseResult {
	res := CaseResult{Name: c.Name, Pass: true}

	out, err := h.execute(c, opts)
	if err != nil {
		res.Code = errorCode(err)
		var pe *predicate.Error
		if errors.As(err, &pe) {
			res.Path = pe.Path
		}
	} else {
		res.Output = string(out)
	}

	if len(c.Expect.Output) > 0 {
		checkOutput(&res, c.Expect, out, err)
	} else {
		checkError(&res, c.Expect, err)
	}
	return res
}

func (h *Harness) execute(c Case, opts Options) ([]byte, error) {
	if c.Kind == KindPredicate {
		old, err := predicate.DecodeOld(c.Input)
		if err != nil {
			return nil, err
		}
		p, err := predicate.Translate(old)
		if err != nil {
			return nil, err
		}
		return p.MarshalJSON()
	}

	var migOpts []tree.Option
	if opts.StrictComplement != nil {
		migOpts = append(migOpts, tree.WithStrictComplement(*opts.StrictComplement))
	}
	if opts.MaxDepth != nil {
		migOpts = append(migOpts, tree.WithMaxDepth(*opts.MaxDepth))
	}
	m := tree.NewMigrator(migOpts...)

	old, err := m.Parse(c.Input)
	if err != nil {
		return nil, err
	}
	node, err := m.Migrate(old)
	if err != nil {
		return nil, err
	}

	if opts.Verify != nil && *opts.Verify {
		v, err := h.getVerifier()
		if err != nil {
			return nil, err
		}
		if err := v.Verify(node); err != nil {
			return nil, err
		}
	}
	return tree.Marshal(node)
}

func (h *Harness) getVerifier() (*schema.Verifier, error) {
	if h.verifier != nil {
		return h.verifier, nil
	}
	v, err := schema.NewVerifier()
	if err != nil {
		return nil, err
	}
	h.verifier = v
	return v, nil
}

func errorCode(err error) string {
	if code := predicate.CodeOf(err); code != "" {
		return string(code)
	}
	var ve *schema.VerificationError
	if errors.As(err, &ve) {
		return SchemaViolation
	}
	return ""
}

func checkOutput(res *CaseResult, expect Expect, got []byte, err error) {
	if err != nil {
		res.AddError(fmt.Sprintf("expected output, got error: %v", err))
		return
	}

	want, werr := ir.UnmarshalIRValue(expect.Output)
	have, herr := ir.UnmarshalIRValue(got)
	if werr != nil || herr != nil {
		res.AddError(fmt.Sprintf("cannot compare output: %v", errors.Join(werr, herr)))
		return
	}
	if !ir.Equal(want, have) {
		res.AddError(fmt.Sprintf("output mismatch:\n  want: %s\n  got:  %s", expect.Output, got))
	}
}

func checkError(res *CaseResult, expect Expect, err error) {
	if err == nil {
		res.AddError(fmt.Sprintf("expected %s, got output %s", expect.Error, res.Output))
		return
	}
	if res.Code != expect.Error {
		res.AddError(fmt.Sprintf("expected %s, got %v", expect.Error, err))
	}
	if expect.Reason != "" && !containsReason(err, expect.Reason) {
		res.AddError(fmt.Sprintf("expected reason containing %q, got %q", expect.Reason, err.Error()))
	}
	if expect.Path != nil && res.Path != *expect.Path {
		res.AddError(fmt.Sprintf("expected path %q, got %q", *expect.Path, res.Path))
	}
}

func containsReason(err error, reason string) bool {
	var pe *predicate.Error
	if errors.As(err, &pe) {
		return strings.Contains(pe.Message, reason)
	}
	return strings.Contains(err.Error(), reason)
}

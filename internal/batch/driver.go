package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
	"github.com/roach88/treemig/internal/store"
	"github.com/roach88/treemig/internal/tree"
)

// maxLineSize bounds a single input line.
const maxLineSize = 256 << 20

// windowPerWorker is how many lines each worker gets per window. Lines are
// migrated a window at a time and written in order once the window is done.
const windowPerWorker = 16

// Summary counts what a run did.
type Summary struct {
	Lines    int // input lines read, including empty ones
	Records  int // non-empty lines
	Migrated int
	Failed   int
}

// Driver migrates record streams. A Driver may be reused for several runs
// but not concurrently.
type Driver struct {
	opts Options
}

// NewDriver validates opts and returns a Driver.
func NewDriver(opts Options) (*Driver, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Driver{opts: opts}, nil
}

type job struct {
	line int
	text string
}

type result struct {
	out          string
	err          error
	inputDigest  string
	outputDigest string
}

// Run reads lines from r, migrates them and writes the results to w.
//
// In fail-fast mode the first failing record is returned as a
// *RecordError. In skip mode failing records are logged and dropped, and
// an error wrapping ErrRecordsFailed is returned at the end if any were.
// Context cancellation and I/O errors end the run in either mode.
func (d *Driver) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	var sum Summary

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	bw := bufio.NewWriter(w)

	window := make([]job, 0, d.opts.Workers*windowPerWorker)
	for sc.Scan() {
		sum.Lines++
		window = append(window, job{line: sum.Lines, text: sc.Text()})
		if len(window) < cap(window) {
			continue
		}
		if err := d.runWindow(ctx, window, bw, &sum); err != nil {
			return sum, flushAfter(bw, err)
		}
		window = window[:0]
	}
	if err := sc.Err(); err != nil {
		return sum, flushAfter(bw, fmt.Errorf("read input: %w", err))
	}
	if len(window) > 0 {
		if err := d.runWindow(ctx, window, bw, &sum); err != nil {
			return sum, flushAfter(bw, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("write output: %w", err)
	}

	if sum.Failed > 0 {
		return sum, fmt.Errorf("%d of %d records failed: %w", sum.Failed, sum.Records, ErrRecordsFailed)
	}
	return sum, nil
}

// flushAfter writes out what was already accepted before returning err.
func flushAfter(bw *bufio.Writer, err error) error {
	if ferr := bw.Flush(); ferr != nil {
		return fmt.Errorf("%w (write output: %v)", err, ferr)
	}
	return err
}

// runWindow migrates a window of lines in parallel, then records and
// writes the results in input order.
func (d *Driver) runWindow(ctx context.Context, jobs []job, w *bufio.Writer, sum *Summary) error {
	results := make([]result, len(jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i := range jobs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = d.migrateLine(jobs[i].text)
			return nil // record failures travel in results
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, res := range results {
		j := jobs[i]
		if j.text == "" {
			if err := writeLine(w, ""); err != nil {
				return err
			}
			continue
		}

		sum.Records++
		if err := d.record(ctx, j.line, res); err != nil {
			return err
		}

		if res.err != nil {
			sum.Failed++
			recErr := &RecordError{Line: j.line, Err: res.err}
			if d.opts.Mode == ModeFailFast {
				return recErr
			}
			d.logSkipped(ctx, recErr)
			continue
		}

		sum.Migrated++
		if err := writeLine(w, res.out); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// migrateLine migrates the tree column of one non-empty line.
func (d *Driver) migrateLine(text string) result {
	if text == "" {
		return result{}
	}

	fields := strings.Split(text, d.opts.Delimiter)
	idx := d.opts.Column
	if idx < 0 {
		idx += len(fields)
	}
	if idx < 0 || idx >= len(fields) {
		err := predicate.NewStructuralError(MsgMissingColumn)
		err.Details = map[string]string{
			"column":  strconv.Itoa(d.opts.Column),
			"columns": strconv.Itoa(len(fields)),
		}
		return result{err: err, inputDigest: d.digestInput([]byte(text))}
	}

	raw := []byte(fields[idx])
	res := result{inputDigest: d.digestInput(raw)}

	old, err := d.opts.Migrator.Parse(raw)
	if err != nil {
		res.err = err
		return res
	}
	migrated, err := d.opts.Migrator.Migrate(old)
	if err != nil {
		res.err = err
		return res
	}
	if d.opts.Verifier != nil {
		if err := d.opts.Verifier.Verify(migrated); err != nil {
			res.err = err
			return res
		}
	}

	out, err := tree.Marshal(migrated)
	if err != nil {
		res.err = err
		return res
	}
	if d.opts.Ledger != nil {
		res.outputDigest, _ = ir.Digest(ir.DomainOutputTree, out)
	}

	fields[idx] = string(out)
	res.out = strings.Join(fields, d.opts.Delimiter)
	return res
}

// digestInput hashes an input tree for the ledger. Input that is not JSON
// is hashed as raw bytes.
func (d *Driver) digestInput(raw []byte) string {
	if d.opts.Ledger == nil {
		return ""
	}
	digest, err := ir.Digest(ir.DomainInputTree, raw)
	if err != nil {
		return ir.DigestBytes(ir.DomainInputTree, raw)
	}
	return digest
}

func (d *Driver) record(ctx context.Context, line int, res result) error {
	if d.opts.Ledger == nil {
		return nil
	}

	rec := store.Record{
		RunID:        d.opts.RunID,
		Line:         line,
		Status:       store.RecordMigrated,
		InputDigest:  res.inputDigest,
		OutputDigest: res.outputDigest,
	}
	if res.err != nil {
		rec.Status = store.RecordFailed
		rec.OutputDigest = ""
		rec.Code = ErrorCode(res.err)
		rec.Reason, rec.Path, rec.Details = reason(res.err)
	}

	if err := d.opts.Ledger.WriteRecord(ctx, rec); err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return nil
}

func (d *Driver) logSkipped(ctx context.Context, recErr *RecordError) {
	msg, path, _ := reason(recErr.Err)
	attrs := []slog.Attr{
		slog.Int("line", recErr.Line),
		slog.String("code", ErrorCode(recErr.Err)),
		slog.String("reason", msg),
	}
	if path != "" {
		attrs = append(attrs, slog.String("path", path))
	}
	d.opts.Logger.LogAttrs(ctx, slog.LevelWarn, "skipped record", attrs...)
}
